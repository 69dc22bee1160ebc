package newsletter

import "time"

// ShouldSendNewsletter decides whether a user is due a digest at the given
// time. A user with no prior delivery is always due. Otherwise today's
// weekday must match the user's preferred day, and the days elapsed since
// the last delivery must meet the frequency's minimum. Twice-weekly
// additionally restricts sends to Monday and Thursday. Unknown frequencies
// use the weekly rule.
func ShouldSendNewsletter(p *Preferences, now time.Time) bool {
	if p.LastDeliveryAt == nil {
		return true
	}

	if int(now.Weekday()) != p.PreferredDay {
		return false
	}

	elapsed := int(now.Sub(*p.LastDeliveryAt).Hours() / 24)

	switch p.Frequency {
	case FrequencyDaily:
		return elapsed >= 1
	case FrequencyTwiceWeekly:
		if now.Weekday() != time.Monday && now.Weekday() != time.Thursday {
			return false
		}
		return elapsed >= 3
	case FrequencyWeekly:
		return elapsed >= 6
	case FrequencyBiWeekly:
		return elapsed >= 13
	case FrequencyMonthly:
		return elapsed >= 27
	default:
		return elapsed >= 6
	}
}

package newsletter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func TestShouldSendNewsletter(t *testing.T) {
	// 2026-08-24 is a Monday.
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	tests := []struct {
		name  string
		prefs Preferences
		now   time.Time
		want  bool
	}{
		{
			name:  "no prior delivery is always due",
			prefs: Preferences{Frequency: FrequencyMonthly, PreferredDay: 3},
			now:   monday,
			want:  true,
		},
		{
			name: "preferred day mismatch blocks any frequency",
			prefs: Preferences{
				Frequency:      FrequencyDaily,
				PreferredDay:   int(time.Tuesday),
				LastDeliveryAt: daysAgo(monday, 10),
			},
			now:  monday,
			want: false,
		},
		{
			name: "daily due after one day",
			prefs: Preferences{
				Frequency:      FrequencyDaily,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 1),
			},
			now:  monday,
			want: true,
		},
		{
			name: "daily not due same day",
			prefs: Preferences{
				Frequency:      FrequencyDaily,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 0),
			},
			now:  monday,
			want: false,
		},
		{
			name: "twice-weekly due on monday after three days",
			prefs: Preferences{
				Frequency:      FrequencyTwiceWeekly,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 3),
			},
			now:  monday,
			want: true,
		},
		{
			name: "twice-weekly blocked on tuesday even when elapsed",
			prefs: Preferences{
				Frequency:      FrequencyTwiceWeekly,
				PreferredDay:   int(time.Tuesday),
				LastDeliveryAt: daysAgo(tuesday, 5),
			},
			now:  tuesday,
			want: false,
		},
		{
			name: "weekly due after six days",
			prefs: Preferences{
				Frequency:      FrequencyWeekly,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 6),
			},
			now:  monday,
			want: true,
		},
		{
			name: "weekly not due after five days",
			prefs: Preferences{
				Frequency:      FrequencyWeekly,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 5),
			},
			now:  monday,
			want: false,
		},
		{
			name: "bi-weekly due after thirteen days",
			prefs: Preferences{
				Frequency:      FrequencyBiWeekly,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 13),
			},
			now:  monday,
			want: true,
		},
		{
			name: "bi-weekly not due after twelve days",
			prefs: Preferences{
				Frequency:      FrequencyBiWeekly,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 12),
			},
			now:  monday,
			want: false,
		},
		{
			name: "monthly due after twenty-seven days",
			prefs: Preferences{
				Frequency:      FrequencyMonthly,
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 27),
			},
			now:  monday,
			want: true,
		},
		{
			name: "unknown frequency uses weekly rule",
			prefs: Preferences{
				Frequency:      "fortnightly-ish",
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 6),
			},
			now:  monday,
			want: true,
		},
		{
			name: "unknown frequency not due early",
			prefs: Preferences{
				Frequency:      "fortnightly-ish",
				PreferredDay:   int(time.Monday),
				LastDeliveryAt: daysAgo(monday, 4),
			},
			now:  monday,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSendNewsletter(&tt.prefs, tt.now))
		})
	}
}

// Package events provides in-process event publication for dashboard streaming.
package events

// EventType represents different event types
type EventType string

const (
	QuoteUpdated        EventType = "QUOTE_UPDATED"
	CollectionStarted   EventType = "COLLECTION_STARTED"
	CollectionCompleted EventType = "COLLECTION_COMPLETED"
	AlertTriggered      EventType = "ALERT_TRIGGERED"
	NewsletterSent      EventType = "NEWSLETTER_SENT"
	TriggerProcessed    EventType = "TRIGGER_PROCESSED"
	MarketStatusChanged EventType = "MARKET_STATUS_CHANGED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, used by the stream handler to subscribe
// a single websocket client to the full firehose.
var AllTypes = []EventType{
	QuoteUpdated,
	CollectionStarted,
	CollectionCompleted,
	AlertTriggered,
	NewsletterSent,
	TriggerProcessed,
	MarketStatusChanged,
	ErrorOccurred,
}

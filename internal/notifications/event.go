package notifications

// Event names pushed over the notification stream. Clients subscribe to these
// by name via EventSource listeners, so the values are part of the API.
const (
	EventConnected             = "connected"
	EventCaseCreated           = "case_created"
	EventCaseUpdated           = "case_updated"
	EventInterventionConfirmed = "intervention_confirmed"
	EventCaseResolved          = "case_resolved"
)

// Event is a named payload delivered to stream connections. Events are
// transient: they are never stored, and a client that is not connected when
// an event is published never sees it.
type Event struct {
	Name string
	Data string
}

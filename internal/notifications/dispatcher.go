package notifications

import (
	"encoding/json"
	"log/slog"

	"solidarlink/internal/audit"
	"solidarlink/internal/cases/models"
	id "solidarlink/pkg/domain"
)

// Dispatcher translates committed case mutations into stream events and audit
// records. Every method returns immediately: delivery runs on a detached
// goroutine so a slow hub or a full audit inbox can never fail or delay the
// mutation that triggered it.
type Dispatcher struct {
	hub    *Hub
	audits *audit.Publisher
	logger *slog.Logger
}

func NewDispatcher(hub *Hub, audits *audit.Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, audits: audits, logger: logger}
}

// CaseCreated broadcasts to every connected user so volunteers see new cases
// appear on the map.
func (d *Dispatcher) CaseCreated(c *models.Case) {
	event := d.event(EventCaseCreated, c)
	go func() {
		d.hub.Broadcast(event)
		d.emitAudit(c, c.AuthorID, audit.ActionCaseCreated, "")
	}()
}

// CaseUpdated targets the author only.
func (d *Dispatcher) CaseUpdated(c *models.Case) {
	event := d.event(EventCaseUpdated, c)
	go func() {
		d.hub.Publish(c.AuthorID, event)
		d.emitAudit(c, c.AuthorID, audit.ActionCaseUpdated, "")
	}()
}

// InterventionConfirmed tells the author a volunteer has taken their case.
func (d *Dispatcher) InterventionConfirmed(c *models.Case) {
	event := d.event(EventInterventionConfirmed, c)
	go func() {
		d.hub.Publish(c.AuthorID, event)
		actor := c.AuthorID
		if c.VolunteerID != nil {
			actor = *c.VolunteerID
		}
		d.emitAudit(c, actor, audit.ActionCaseTaken, c.InterventionMessage)
	}()
}

// CaseResolved tells the assigned volunteer the case they worked on is
// closed. Unassigned cases produce no stream event.
func (d *Dispatcher) CaseResolved(c *models.Case) {
	event := d.event(EventCaseResolved, c)
	volunteerID := c.VolunteerID
	go func() {
		if volunteerID != nil {
			d.hub.Publish(*volunteerID, event)
		}
		d.emitAudit(c, c.AuthorID, audit.ActionCaseResolved, "")
	}()
}

// event serializes the case into the stream payload. A marshal failure falls
// back to an id-only payload rather than dropping the event.
func (d *Dispatcher) event(name string, c *models.Case) Event {
	data, err := json.Marshal(c)
	if err != nil {
		d.logger.Error("failed to marshal case for stream event",
			"event", name, "case_id", c.ID.String(), "error", err.Error())
		data = []byte(`{"id":"` + c.ID.String() + `"}`)
	}
	return Event{Name: name, Data: string(data)}
}

func (d *Dispatcher) emitAudit(c *models.Case, actorID id.UserID, action, detail string) {
	if d.audits == nil {
		return
	}
	d.audits.Emit(audit.Event{
		ActorID: actorID,
		CaseID:  c.ID,
		Action:  action,
		Detail:  detail,
	})
}

package audit

import (
	"time"

	id "solidarlink/pkg/domain"
)

// Actions recorded on the audit trail.
const (
	ActionCaseCreated     = "case_created"
	ActionCaseUpdated     = "case_updated"
	ActionCaseTaken       = "case_taken"
	ActionCaseResolved    = "case_resolved"
	ActionCaseStatusForce = "case_status_forced"
)

// Event is one append-only audit record of a case lifecycle action.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	ActorID   id.UserID `json:"actor_id"`
	CaseID    id.CaseID `json:"case_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

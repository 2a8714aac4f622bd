package reports

import (
	"time"

	id "solidarlink/pkg/domain"
)

// Report is an abuse report a user files against a case. Reports are
// moderation input only: filing one never changes the reported case, and an
// admin closing one records that it was handled without saying how.
type Report struct {
	ID          id.ReportID `json:"id"`
	ReporterID  id.UserID   `json:"reporter_id"`
	CaseID      id.CaseID   `json:"case_id"`
	Reason      string      `json:"reason"`
	Description string      `json:"description,omitempty"`
	Closed      bool        `json:"closed"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Clone returns a deep copy so store internals never alias caller state.
func (r *Report) Clone() *Report {
	clone := *r
	return &clone
}

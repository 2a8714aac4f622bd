package domain

import dErrors "solidarlink/pkg/domainerrors"

// CaseStatus is the lifecycle state of a humanitarian case.
// Invariant: transitions follow the graph below; RESOLVED and REJECTED are
// terminal and no operation moves a case out of them.
//
//	PENDING   --(admin validate)---> VALIDATED
//	PENDING   --(admin reject)-----> REJECTED
//	VALIDATED --(admin reject)-----> REJECTED
//	VALIDATED --(volunteer takes)--> IN_PROGRESS
//	IN_PROGRESS --(author/volunteer resolves)--> RESOLVED
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "PENDING"
	CaseStatusValidated  CaseStatus = "VALIDATED"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusResolved   CaseStatus = "RESOLVED"
	CaseStatusRejected   CaseStatus = "REJECTED"
)

// validCaseStatuses is the single source of truth for valid statuses.
var validCaseStatuses = map[CaseStatus]bool{
	CaseStatusPending:    true,
	CaseStatusValidated:  true,
	CaseStatusInProgress: true,
	CaseStatusResolved:   true,
	CaseStatusRejected:   true,
}

// caseTransitions encodes the allowed edges of the lifecycle graph.
var caseTransitions = map[CaseStatus]map[CaseStatus]bool{
	CaseStatusPending: {
		CaseStatusValidated: true,
		CaseStatusRejected:  true,
	},
	CaseStatusValidated: {
		CaseStatusInProgress: true,
		CaseStatusRejected:   true,
	},
	CaseStatusInProgress: {
		CaseStatusResolved: true,
	},
}

// ParseCaseStatus constructs a CaseStatus from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseCaseStatus(s string) (CaseStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := CaseStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s CaseStatus) IsValid() bool {
	return validCaseStatuses[s]
}

// IsTerminal reports whether the status permits no further transitions.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusResolved || s == CaseStatusRejected
}

// CanTransitionTo reports whether the lifecycle graph allows moving from s to
// target. Terminal states allow nothing.
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	return caseTransitions[s][target]
}

// String returns the string representation of the status.
func (s CaseStatus) String() string {
	return string(s)
}

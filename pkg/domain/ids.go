package domain

import (
	"github.com/google/uuid"

	dErrors "solidarlink/pkg/domainerrors"
)

// Typed IDs keep user and case identifiers from being mixed up at compile
// time. Construct via the Parse functions at trust boundaries; direct casting
// bypasses validation.
type (
	UserID   uuid.UUID
	CaseID   uuid.UUID
	ReportID uuid.UUID
)

// NewUserID returns a freshly generated user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewCaseID returns a freshly generated case ID.
func NewCaseID() CaseID {
	return CaseID(uuid.New())
}

// NewReportID returns a freshly generated abuse report ID.
func NewReportID() ReportID {
	return ReportID(uuid.New())
}

// ParseUserID constructs a UserID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(id), nil
}

// ParseCaseID constructs a CaseID from external input.
func ParseCaseID(s string) (CaseID, error) {
	id, err := parseUUID(s)
	if err != nil {
		return CaseID{}, err
	}
	return CaseID(id), nil
}

// ParseReportID constructs a ReportID from external input.
func ParseReportID(s string) (ReportID, error) {
	id, err := parseUUID(s)
	if err != nil {
		return ReportID{}, err
	}
	return ReportID(id), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return id, nil
}

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id CaseID) String() string   { return uuid.UUID(id).String() }
func (id ReportID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CaseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ReportID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

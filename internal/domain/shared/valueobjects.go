// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// LearnerID represents a unique learner identifier (UUID format).
type LearnerID string

// IsValid checks if the learner ID is a valid UUID.
func (l LearnerID) IsValid() bool {
	return uuidRegex.MatchString(string(l))
}

// String returns the string representation.
func (l LearnerID) String() string {
	return string(l)
}

// IsEmpty checks if the ID is empty.
func (l LearnerID) IsEmpty() bool {
	return l == ""
}

// NewLearnerID creates a new LearnerID with validation.
func NewLearnerID(id string) (LearnerID, error) {
	lid := LearnerID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", NewDomainError("shared", "NewLearnerID", ErrInvalidID, "invalid learner ID format")
	}
	return lid, nil
}

// ContentNodeID represents a unique content node identifier (UUID format).
type ContentNodeID string

// IsValid checks if the content node ID is a valid UUID.
func (c ContentNodeID) IsValid() bool {
	return uuidRegex.MatchString(string(c))
}

// String returns the string representation.
func (c ContentNodeID) String() string {
	return string(c)
}

// NewContentNodeID creates a new ContentNodeID with validation.
func NewContentNodeID(id string) (ContentNodeID, error) {
	cid := ContentNodeID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewContentNodeID", ErrInvalidID, "invalid content node ID format")
	}
	return cid, nil
}

// AttemptID represents a unique quiz attempt identifier (UUID format).
type AttemptID string

// IsValid checks if the attempt ID is a valid UUID.
func (a AttemptID) IsValid() bool {
	return uuidRegex.MatchString(string(a))
}

// String returns the string representation.
func (a AttemptID) String() string {
	return string(a)
}

// NewAttemptID creates a new AttemptID with validation.
func NewAttemptID(id string) (AttemptID, error) {
	aid := AttemptID(strings.ToLower(strings.TrimSpace(id)))
	if !aid.IsValid() {
		return "", NewDomainError("shared", "NewAttemptID", ErrInvalidID, "invalid attempt ID format")
	}
	return aid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a learner's email address.
type Email string

// Deliberately loose - real validation happens at delivery time.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValid checks if the email has a plausible shape.
func (e Email) IsValid() bool {
	s := string(e)
	return len(s) >= 5 && len(s) <= 254 && emailRegex.MatchString(s)
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns a normalized (lowercase, trimmed) email.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// NewEmail creates a new Email with validation.
func NewEmail(value string) (Email, error) {
	e := Email(value).Normalize()
	if !e.IsValid() {
		return "", NewDomainError("shared", "NewEmail", ErrInvalidFormat, "invalid email address")
	}
	return e, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a normalized quiz score in [0, 1].
type Score float64

// IsValid checks if the score is within the normalized range.
func (s Score) IsValid() bool {
	return s >= 0 && s <= 1
}

// Float64 returns the underlying float64 value.
func (s Score) Float64() float64 {
	return float64(s)
}

// NewScore creates a new Score with validation.
func NewScore(value float64) (Score, error) {
	s := Score(value)
	if !s.IsValid() {
		return 0, NewDomainError("shared", "NewScore", ErrInvalidInput, "score must be between 0 and 1")
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// AcceptedAt Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AcceptedAt is the timestamp assigned to an event at acceptance time.
// It is always UTC and never reassigned at persistence time, so downstream
// consumers can reconstruct a causally plausible order.
type AcceptedAt time.Time

// Now returns the current acceptance timestamp.
func Now() AcceptedAt {
	return AcceptedAt(time.Now().UTC())
}

// Time returns the underlying time.Time.
func (a AcceptedAt) Time() time.Time {
	return time.Time(a)
}

// IsZero reports whether the timestamp is unset.
func (a AcceptedAt) IsZero() bool {
	return time.Time(a).IsZero()
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	FullBody    ServiceType = "Full Body"
	Foot        ServiceType = "Foot"
	Combination ServiceType = "Combination"
	Chair       ServiceType = "Chair"

	Duration20 Duration = "20min"
	Duration30 Duration = "30min"
	Duration40 Duration = "40min"
	Duration60 Duration = "60min"

	StatusActive   TherapistStatus = "active"
	StatusInactive TherapistStatus = "inactive"

	// PolicyDaily keeps at most one record per calendar date: saving an
	// existing date updates it in place. PolicyVisit inserts one record per
	// transaction, so daily totals sum over all same-date rows.
	PolicyDaily RecordPolicy = "daily"
	PolicyVisit RecordPolicy = "visit"
)

type (
	ServiceType     string
	Duration        string
	TherapistStatus string
	RecordPolicy    string

	// Date is a calendar date with no time-of-day component. All arithmetic
	// is done on UTC midnights so day spans never drift.
	Date struct {
		time.Time
	}

	// Record is one persisted revenue entry for a date.
	Record struct {
		ID            int64
		Date          Date
		CardAmount    Money
		CashAmount    Money
		TotalAmount   Money
		CustomerCount int
		Note          string
		ServiceType   ServiceType
		Duration      Duration
		TherapistID   *int64
		// TherapistName is resolved by the store when listing; empty means
		// the record is unassigned.
		TherapistName string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Therapist is a roster entry. Therapists are never hard-deleted;
	// removal toggles the status to inactive so records keep their reference.
	Therapist struct {
		ID             int64
		Name           string
		Status         TherapistStatus
		CommissionRate float64 // reserved
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCount    = errors.New("invalid customer count")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidService  = errors.New("invalid service type")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyName       = errors.New("empty therapist name")
	ErrInvalidPolicy   = errors.New("invalid record policy")
)

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses an ISO 8601 date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date formatted as 2006-01-02.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of calendar days from d to e (negative when
// e is earlier).
func (d Date) DaysUntil(e Date) int {
	return int(e.Sub(d.Time) / (24 * time.Hour))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

// ParseServiceType maps a form value to the closed service enumeration.
// Empty input falls back to the default offering.
func ParseServiceType(s string) (ServiceType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FullBody, nil
	}
	switch st := ServiceType(s); st {
	case FullBody, Foot, Combination, Chair:
		return st, nil
	}
	return "", ErrInvalidService
}

// ParseDuration maps a form value to the closed duration enumeration.
// Empty input falls back to the default.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Duration20, nil
	}
	switch d := Duration(s); d {
	case Duration20, Duration30, Duration40, Duration60:
		return d, nil
	}
	return "", ErrInvalidDuration
}

// ParseTherapistStatus maps a form value to active/inactive, defaulting to
// active when absent.
func ParseTherapistStatus(s string) (TherapistStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusActive, nil
	}
	switch st := TherapistStatus(s); st {
	case StatusActive, StatusInactive:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// ParseRecordPolicy validates a configured record policy, defaulting to the
// per-visit variant when absent.
func ParseRecordPolicy(s string) (RecordPolicy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PolicyVisit, nil
	}
	switch p := RecordPolicy(s); p {
	case PolicyDaily, PolicyVisit:
		return p, nil
	}
	return "", ErrInvalidPolicy
}

// RecomputeTotal derives the total from card + cash. The total is never
// accepted as independent input; every write path calls this first.
func (r *Record) RecomputeTotal() {
	r.TotalAmount = Money{Cents: r.CardAmount.Cents + r.CashAmount.Cents}
}

func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.CardAmount.Cents < 0 || r.CashAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if r.CustomerCount < 0 {
		return ErrInvalidCount
	}
	if len(r.Note) > 1000 {
		return errors.New("note too long (max 1000 characters)")
	}
	if _, err := ParseServiceType(string(r.ServiceType)); err != nil {
		return err
	}
	if _, err := ParseDuration(string(r.Duration)); err != nil {
		return err
	}
	return nil
}

func (t Therapist) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 120 {
		return errors.New("therapist name too long (max 120 characters)")
	}
	if _, err := ParseTherapistStatus(string(t.Status)); err != nil {
		return err
	}
	if t.CommissionRate < 0 {
		return errors.New("commission rate cannot be negative")
	}
	return nil
}

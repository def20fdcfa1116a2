package simulation

import (
	"errors"
	"fmt"
)

var (
	ErrNoDocument      = errors.New("no scenario document")
	ErrInvalidDocument = errors.New("invalid scenario document")
	ErrUnknownDrone    = errors.New("unknown drone")
	ErrUnknownServer   = errors.New("unknown server")
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Kind classifies a recoverable load problem.
type Kind string

const (
	KindInput       Kind = "input"       // malformed or missing field, record skipped
	KindReferential Kind = "referential" // reference to an unknown server, record kept
	KindValidation  Kind = "validation"  // record rejected by its schema
)

// Diagnostic is a recoverable problem found while loading a scenario.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Subject  string   `json:"subject"` // e.g. "servers[2]" or "drone d1"
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Kind, d.Subject, d.Message)
}

// LoadReport summarises a load.
type LoadReport struct {
	Servers     int          `json:"servers"`
	Drones      int          `json:"drones"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

func (r *LoadReport) warn(kind Kind, subject, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *LoadReport) reject(kind Kind, subject, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Count returns the number of diagnostics of the given kind.
func (r *LoadReport) Count(kind Kind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func (r *LoadReport) merge(other LoadReport) {
	r.Servers += other.Servers
	r.Drones += other.Drones
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

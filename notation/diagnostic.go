package notation

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Severity ranks a diagnostic. Errors make the document invalid; warnings
// flag quality issues that do not block interpretation.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a severity from its string name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", name)
	}
	return nil
}

// Diagnostic is one finding against a document. Related carries the span of
// a first occurrence for duplicate-definition and signature-consistency
// findings.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Span     Span     `json:"span"`
	Message  string   `json:"message"`
	Related  *Span    `json:"related,omitempty"`
}

// Errorf builds an error diagnostic at span.
func Errorf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warnf builds a warning diagnostic at span.
func Warnf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithRelated returns a copy of d pointing at a related span, typically the
// first occurrence being cited.
func (d Diagnostic) WithRelated(span Span) Diagnostic {
	related := span
	d.Related = &related
	return d
}

// SortDiagnostics orders diagnostics deterministically: by start position,
// then severity (errors first), then message. Re-analyzing an unmodified
// document therefore yields a byte-identical diagnostic list.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start.Before(b.Span.Start)
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Message < b.Message
	})
}

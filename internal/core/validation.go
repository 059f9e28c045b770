package core

// validation.go covers two levels of checking:
//  1. Row validation: ValidationError describes one rejected bulk-text row
//     or one bad operation argument.
//  2. Collection validation: loaded collections must satisfy the uniqueness
//     invariants before the store will use them.

import (
	"fmt"
	"strings"
)

// Rejection reasons recorded on row-level validation errors.
const (
	ReasonMalformed        = "malformed"
	ReasonDuplicateInStore = "duplicate in store"
	ReasonDuplicateInBatch = "duplicate in batch"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Line    int    // 1-indexed source line, 0 when not row-related
	Field   string // Field name
	Value   string // The offending value
	Message string // Human-readable message
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

// validateNumbers checks id and phone uniqueness of a loaded number collection.
func validateNumbers(numbers []NumberRecord) error {
	ids := make(map[int64]struct{}, len(numbers))
	phones := make(map[string]int64, len(numbers))

	for i, n := range numbers {
		if n.ID <= 0 {
			return fmt.Errorf("number[%d]: id %d must be positive", i, n.ID)
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("number[%d]: duplicate id %d", i, n.ID)
		}
		ids[n.ID] = struct{}{}

		key := NormalizePhone(n.PhoneNumber)
		if key == "" {
			return fmt.Errorf("number[%d]: id %d has an empty phone number", i, n.ID)
		}
		if other, dup := phones[key]; dup {
			return fmt.Errorf("number[%d]: phone %q duplicates id %d", i, n.PhoneNumber, other)
		}
		phones[key] = n.ID

		if n.Age != nil && *n.Age < 0 {
			return fmt.Errorf("number[%d]: negative age", i)
		}
	}
	return nil
}

// validatePersons checks id and display name uniqueness of a loaded person collection.
func validatePersons(persons []PersonRecord) error {
	ids := make(map[int64]struct{}, len(persons))
	names := make(map[string]struct{}, len(persons))

	for i, p := range persons {
		if p.ID <= 0 {
			return fmt.Errorf("person[%d]: id %d must be positive", i, p.ID)
		}
		if _, dup := ids[p.ID]; dup {
			return fmt.Errorf("person[%d]: duplicate id %d", i, p.ID)
		}
		ids[p.ID] = struct{}{}

		if strings.TrimSpace(p.DisplayName) == "" {
			return fmt.Errorf("person[%d]: empty display name", i)
		}
		if _, dup := names[p.DisplayName]; dup {
			return fmt.Errorf("person[%d]: duplicate display name %q", i, p.DisplayName)
		}
		names[p.DisplayName] = struct{}{}
	}
	return nil
}

// validateLogs checks that every loaded log entry carries an action.
func validateLogs(logs []LogEntry) error {
	for i, l := range logs {
		if strings.TrimSpace(l.Action) == "" {
			return fmt.Errorf("log[%d]: empty action", i)
		}
	}
	return nil
}

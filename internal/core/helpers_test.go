package core

import (
	"testing"
)

// ============================================================================
// CleanCell Tests
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "13800000000", "13800000000"},
		{"surrounding whitespace", "  13800000000\t", "13800000000"},
		{"excel formula prefix", `="13800000000"`, "13800000000"},
		{"excel formula with spaces", ` =" 0012 " `, "0012"},
		{"lone equals kept", "=", "="},
		{"unterminated formula kept", `="123`, `="123`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.expected {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// ============================================================================
// NormalizePhone Tests
// ============================================================================

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dashes", "+1-888-000-0001", "+18880000001"},
		{"parentheses and spaces", "+1 (888) 000-0001", "+18880000001"},
		{"dots", "138.0000.0000", "13800000000"},
		{"no plus", "1-888-000-0001", "18880000001"},
		{"letters lower-cased", "1-800-FLOWERS", "1800flowers"},
		{"inner plus dropped", "1+2", "12"},
		{"only separators", " - ( ) ", ""},
		{"only plus", "+", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizePhone_EquivalentForms(t *testing.T) {
	forms := []string{"+1-888-000-0001", "+1 888 000 0001", "+1 (888) 000-0001", "+1.888.000.0001"}
	want := NormalizePhone(forms[0])
	for _, f := range forms[1:] {
		if got := NormalizePhone(f); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", f, got, want)
		}
	}
}

// ============================================================================
// Age Tests
// ============================================================================

func TestParseAge(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantNil bool
	}{
		{"31", 31, false},
		{" 0 ", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
		{"3.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAge(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Errorf("parseAge(%q) = %d, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseAge(%q) = nil, want %d", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Errorf("parseAge(%q) = %d, want %d", tt.input, *got, tt.want)
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	age := 42
	if got := FormatAge(&age); got != "42" {
		t.Errorf("FormatAge(42) = %q", got)
	}
	if got := FormatAge(nil); got != "" {
		t.Errorf("FormatAge(nil) = %q, want empty", got)
	}
}

func TestIsEmptyRow(t *testing.T) {
	if !isEmptyRow([]string{"", "  ", "\t"}) {
		t.Error("blank fields should be an empty row")
	}
	if isEmptyRow([]string{"", "x"}) {
		t.Error("row with content should not be empty")
	}
}

// ============================================================================
// Collection Validation Tests
// ============================================================================

func TestValidateNumbers(t *testing.T) {
	neg := -1
	tests := []struct {
		name    string
		numbers []NumberRecord
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid", []NumberRecord{{ID: 1, PhoneNumber: "1"}, {ID: 2, PhoneNumber: "2"}}, false},
		{"duplicate id", []NumberRecord{{ID: 1, PhoneNumber: "1"}, {ID: 1, PhoneNumber: "2"}}, true},
		{"zero id", []NumberRecord{{ID: 0, PhoneNumber: "1"}}, true},
		{"duplicate normalized phone", []NumberRecord{{ID: 1, PhoneNumber: "+1-888"}, {ID: 2, PhoneNumber: "+1 888"}}, true},
		{"empty phone", []NumberRecord{{ID: 1, PhoneNumber: " - "}}, true},
		{"negative age", []NumberRecord{{ID: 1, PhoneNumber: "1", Age: &neg}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNumbers(tt.numbers)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateNumbers() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePersons(t *testing.T) {
	tests := []struct {
		name    string
		persons []PersonRecord
		wantErr bool
	}{
		{"valid", []PersonRecord{{ID: 1, DisplayName: "A"}, {ID: 2, DisplayName: "B"}}, false},
		{"duplicate display name", []PersonRecord{{ID: 1, DisplayName: "A"}, {ID: 2, DisplayName: "A"}}, true},
		{"empty display name", []PersonRecord{{ID: 1, DisplayName: " "}}, true},
		{"duplicate id", []PersonRecord{{ID: 1, DisplayName: "A"}, {ID: 1, DisplayName: "B"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePersons(tt.persons)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePersons() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Line: 3, Field: "phoneNumber", Message: "duplicate in batch"}, "line 3: phoneNumber: duplicate in batch"},
		{ValidationError{Field: "count", Message: "must not be negative"}, "count: must not be negative"},
		{ValidationError{Message: "bad"}, "bad"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

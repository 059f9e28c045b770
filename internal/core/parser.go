package core

// parser.go turns pasted bulk text into candidate number records.
//
// Input is one row per line, comma separated: phoneNumber,name,age[,note].
// Quoted fields follow CSV rules, so a note may contain commas when quoted;
// unquoted extra fields are joined back into the note. Blank lines are
// skipped without being counted.
//
// Each non-blank row is classified as accepted, malformed (no usable phone
// number), duplicate-in-store or duplicate-in-batch (first occurrence wins).
// A bad age never rejects a row; it is stored as absent.

import (
	"encoding/csv"
	"iter"
	"strings"
	"unicode"
)

// RowStatus classifies one parsed row.
type RowStatus int

const (
	RowAccepted RowStatus = iota
	RowMalformed
	RowDuplicateInStore
	RowDuplicateInBatch
)

func (s RowStatus) String() string {
	switch s {
	case RowAccepted:
		return "accepted"
	case RowMalformed:
		return ReasonMalformed
	case RowDuplicateInStore:
		return ReasonDuplicateInStore
	case RowDuplicateInBatch:
		return ReasonDuplicateInBatch
	default:
		return "unknown"
	}
}

// ParsedRow is one classified row of a batch.
type ParsedRow struct {
	Status    RowStatus
	Candidate Candidate // Populated as far as the row could be read
	Raw       string    // Original phone cell, for rejection messages

	reason string // Overrides the rejection message
}

// Rejection returns the validation error for a rejected row.
func (r ParsedRow) Rejection() ValidationError {
	msg := r.Status.String()
	if r.reason != "" {
		msg = r.reason
	} else if r.Status == RowMalformed && r.Raw == "" {
		msg = "phone number is empty"
	} else if r.Status == RowMalformed {
		msg = "phone number has no digits"
	}
	return ValidationError{
		Line:    r.Candidate.Line,
		Field:   "phoneNumber",
		Value:   r.Raw,
		Message: msg,
	}
}

// ParseResult is a fully collected batch.
type ParseResult struct {
	Candidates []Candidate
	Stats      ParseStats
	Rejected   []ValidationError
}

// Parser validates bulk text against the phone numbers known when it was
// created. It never mutates the store.
type Parser struct {
	existing map[string]struct{}
}

// NewParser creates a parser that treats every phone in existing as taken.
func NewParser(existing []NumberRecord) *Parser {
	keys := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		if key := NormalizePhone(n.PhoneNumber); key != "" {
			keys[key] = struct{}{}
		}
	}
	return &Parser{existing: keys}
}

// Rows returns a lazy sequence over the rows of raw. The sequence is
// restartable: each iteration re-reads raw from the start with fresh batch
// state and yields the same rows.
//
// Each line is tokenized on its own, so a quote never spans lines. A line
// whose quoted field is never closed is malformed.
func (p *Parser) Rows(raw string) iter.Seq[ParsedRow] {
	return func(yield func(ParsedRow) bool) {
		seen := make(map[string]struct{})

		line := 0
		for text := range strings.Lines(raw) {
			line++
			text = strings.TrimRight(text, "\r\n")
			if strings.TrimSpace(text) == "" {
				continue
			}

			var row ParsedRow
			if unclosedQuote(text) {
				row = ParsedRow{
					Status:    RowMalformed,
					Candidate: Candidate{Line: line},
					Raw:       strings.TrimSpace(text),
					reason:    "unclosed quote",
				}
			} else {
				fields, ok := splitLine(text)
				if !ok || isEmptyRow(fields) {
					continue
				}
				row = p.classify(fields, line, seen)
			}

			if !yield(row) {
				return
			}
		}
	}
}

// splitLine tokenizes one comma-separated line.
func splitLine(text string) ([]string, bool) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	fields, err := r.Read()
	if err != nil {
		return nil, false
	}
	return fields, true
}

// unclosedQuote reports whether a field of text opens a quote that is never
// closed before the end of the line.
func unclosedQuote(text string) bool {
	inQuotes, fieldStart := false, true
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					i++
					continue
				}
				inQuotes = false
			}
		case c == ',':
			fieldStart = true
		case fieldStart && (c == ' ' || c == '\t'):
		case fieldStart && c == '"':
			inQuotes, fieldStart = true, false
		default:
			fieldStart = false
		}
	}
	return inQuotes
}

// classify builds and checks a candidate from one record.
func (p *Parser) classify(fields []string, line int, seen map[string]struct{}) ParsedRow {
	field := func(i int) string {
		if i < len(fields) {
			return CleanCell(fields[i])
		}
		return ""
	}

	c := Candidate{
		Line:        line,
		PhoneNumber: field(0),
		Name:        field(1),
		Age:         parseAge(field(2)),
	}
	if len(fields) > 3 {
		c.Note = strings.TrimSpace(strings.Join(fields[3:], ","))
	}
	row := ParsedRow{Candidate: c, Raw: c.PhoneNumber}

	key := NormalizePhone(c.PhoneNumber)
	switch {
	case key == "" || !strings.ContainsFunc(key, unicode.IsDigit):
		row.Status = RowMalformed
	case p.taken(key):
		row.Status = RowDuplicateInStore
	default:
		if _, dup := seen[key]; dup {
			row.Status = RowDuplicateInBatch
		} else {
			seen[key] = struct{}{}
			row.Status = RowAccepted
		}
	}
	return row
}

func (p *Parser) taken(key string) bool {
	_, ok := p.existing[key]
	return ok
}

// Parse collects Rows(raw) into accepted candidates, counts and rejections.
func (p *Parser) Parse(raw string) ParseResult {
	return collect(p.Rows(raw))
}

// Recheck classifies pre-parsed candidates against this parser's store
// snapshot, as if they had come from one batch.
func (p *Parser) Recheck(candidates []Candidate) ParseResult {
	return collect(func(yield func(ParsedRow) bool) {
		seen := make(map[string]struct{})
		for _, c := range candidates {
			fields := []string{c.PhoneNumber, c.Name, "", c.Note}
			row := p.classify(fields, c.Line, seen)
			if c.Age != nil && *c.Age >= 0 {
				age := *c.Age
				row.Candidate.Age = &age
			}
			if !yield(row) {
				return
			}
		}
	})
}

func collect(rows iter.Seq[ParsedRow]) ParseResult {
	res := ParseResult{Candidates: []Candidate{}}
	for row := range rows {
		switch row.Status {
		case RowAccepted:
			res.Stats.Accepted++
			res.Candidates = append(res.Candidates, row.Candidate)
			continue
		case RowMalformed:
			res.Stats.Malformed++
		case RowDuplicateInStore:
			res.Stats.DuplicateInStore++
		case RowDuplicateInBatch:
			res.Stats.DuplicateInBatch++
		}
		res.Rejected = append(res.Rejected, row.Rejection())
	}
	return res
}

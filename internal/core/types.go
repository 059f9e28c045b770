package core

import (
	"fmt"
	"strings"
)

// Collection names one of the three durable collections.
type Collection string

const (
	CollectionNumbers Collection = "numbers"
	CollectionPersons Collection = "persons"
	CollectionLogs    Collection = "logs"
)

// Collections lists every durable collection in load order.
var Collections = []Collection{CollectionNumbers, CollectionPersons, CollectionLogs}

// NumberRecord is a single phone number in the roster.
type NumberRecord struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Age         *int   `json:"age,omitempty"`
	Assignee    string `json:"assignee"`   // Person display name, empty = unassigned
	ImportTime  string `json:"importTime"` // Formatted with the service time layout
	FileName    string `json:"fileName"`   // Import source tag
	Note        string `json:"note,omitempty"`
}

// Unassigned reports whether the number has no owner.
func (n NumberRecord) Unassigned() bool {
	return n.Assignee == ""
}

// clone returns a copy that shares no memory with n.
func (n NumberRecord) clone() NumberRecord {
	if n.Age != nil {
		age := *n.Age
		n.Age = &age
	}
	return n
}

// PersonRecord is a person or team that numbers can be assigned to.
type PersonRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Purpose     string `json:"purpose"`
	Remark      string `json:"remark"`
	DisplayName string `json:"displayName"`
}

// LogEntry is one immutable audit log line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Content   string `json:"content"`
}

// Candidate is a parsed bulk-text row that has not been persisted yet.
type Candidate struct {
	Line        int // 1-indexed line in the pasted text
	PhoneNumber string
	Name        string
	Age         *int
	Note        string
}

// ParseStats counts how the rows of one batch were classified.
type ParseStats struct {
	Accepted         int `json:"accepted"`
	DuplicateInStore int `json:"duplicateInStore"`
	DuplicateInBatch int `json:"duplicateInBatch"`
	Malformed        int `json:"malformed"`
}

// Rejected returns the number of rows that were not accepted.
func (s ParseStats) Rejected() int {
	return s.DuplicateInStore + s.DuplicateInBatch + s.Malformed
}

// ImportRequest describes one bulk import.
// Exactly one of Text or Candidates is used; Text wins when both are set.
type ImportRequest struct {
	Text            string
	Candidates      []Candidate
	DefaultAssignee string // Optional owner for every imported number
	Source          string // Stored as FileName; defaults to the service source tag
}

// ImportResult contains the outcome of an import.
type ImportResult struct {
	Added    int
	Records  []NumberRecord
	Stats    ParseStats
	Rejected []ValidationError
}

// ExportMode selects which numbers an export covers.
type ExportMode string

const (
	ExportAll    ExportMode = "all"
	ExportRange  ExportMode = "range"
	ExportRandom ExportMode = "random"
)

// ParseExportMode converts user input to an ExportMode.
func ParseExportMode(s string) (ExportMode, error) {
	switch ExportMode(strings.ToLower(strings.TrimSpace(s))) {
	case ExportAll, "":
		return ExportAll, nil
	case ExportRange:
		return ExportRange, nil
	case ExportRandom:
		return ExportRandom, nil
	default:
		return "", ValidationError{Field: "mode", Value: s, Message: "export mode must be one of: all, range, random"}
	}
}

// ExportRequest describes one export, optionally with assignment.
type ExportRequest struct {
	Mode     ExportMode
	From     int64  // Inclusive lower id bound (range mode)
	To       int64  // Inclusive upper id bound (range mode)
	Count    int    // Number of records to draw (random mode)
	AssignTo string // Display name to assign; empty = export only
}

// ExportResult contains the selected records after any assignment.
type ExportResult struct {
	Mode          ExportMode
	Records       []NumberRecord
	AssignedCount int
}

// NumberInput holds the editable fields of a number.
type NumberInput struct {
	PhoneNumber string
	Name        string
	Age         *int
	Assignee    string
	Note        string
}

// PersonInput holds the editable fields of a person.
type PersonInput struct {
	Name    string
	Purpose string
	Remark  string
}

// RosterStats summarizes the current collections.
type RosterStats struct {
	Numbers    int `json:"numbers"`
	Unassigned int `json:"unassigned"`
	Persons    int `json:"persons"`
	Logs       int `json:"logs"`
}

func (m ExportMode) label(req ExportRequest) string {
	switch m {
	case ExportRange:
		return fmt.Sprintf("范围 %d-%d", req.From, req.To)
	case ExportRandom:
		return fmt.Sprintf("随机 %d 条", req.Count)
	default:
		return "全部"
	}
}

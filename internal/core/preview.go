package core

import (
	"io"
	"time"
)

// PreviewSummary contains the summary counts for an import preview.
type PreviewSummary struct {
	TotalRows        int `json:"totalRows"`
	NewRows          int `json:"newRows"`
	ErrorRows        int `json:"errorRows"`
	DuplicateInStore int `json:"duplicateInStore"`
	DuplicateInFile  int `json:"duplicateInFile"`
}

// RowPreview represents a single accepted row for preview display.
type RowPreview struct {
	LineNumber  int    `json:"lineNumber"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Age         *int   `json:"age,omitempty"`
	Note        string `json:"note,omitempty"`
}

// ErrorPreview represents a rejected row.
type ErrorPreview struct {
	LineNumber int    `json:"lineNumber"`
	Value      string `json:"value"`
	Reason     string `json:"reason"`
}

// PreviewResponse is the complete result of an import preview.
// Candidates holds every accepted row so a confirmed preview can be
// imported without parsing the text again.
type PreviewResponse struct {
	Summary          PreviewSummary `json:"summary"`
	NewRowSamples    []RowPreview   `json:"newRowSamples"`
	ErrorSamples     []ErrorPreview `json:"errorSamples"`
	Candidates       []Candidate    `json:"-"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

// Sample limits
const (
	maxNewRowSamples = 10
	maxErrorSamples  = 20
)

// PreviewImport performs read-only analysis of an import file using the
// configured encoding and size limit.
func (s *Service) PreviewImport(r io.Reader) (*PreviewResponse, error) {
	text, err := ReadImportText(r, s.importEncoding, s.maxImportBytes)
	if err != nil {
		return nil, err
	}
	return s.PreviewText(text), nil
}

// PreviewText classifies every row of text against the current store and
// returns a preview of what Import would do. Nothing is saved or logged.
func (s *Service) PreviewText(text string) *PreviewResponse {
	startTime := time.Now()

	resp := &PreviewResponse{
		NewRowSamples: []RowPreview{},
		ErrorSamples:  []ErrorPreview{},
		Candidates:    []Candidate{},
	}

	for row := range NewParser(s.store.Numbers()).Rows(text) {
		resp.Summary.TotalRows++

		switch row.Status {
		case RowAccepted:
			resp.Summary.NewRows++
			resp.Candidates = append(resp.Candidates, row.Candidate)
			if len(resp.NewRowSamples) < maxNewRowSamples {
				c := row.Candidate
				resp.NewRowSamples = append(resp.NewRowSamples, RowPreview{
					LineNumber:  c.Line,
					PhoneNumber: c.PhoneNumber,
					Name:        c.Name,
					Age:         c.Age,
					Note:        c.Note,
				})
			}
			continue
		case RowMalformed:
			resp.Summary.ErrorRows++
		case RowDuplicateInStore:
			resp.Summary.DuplicateInStore++
		case RowDuplicateInBatch:
			resp.Summary.DuplicateInFile++
		}

		if len(resp.ErrorSamples) < maxErrorSamples {
			rej := row.Rejection()
			resp.ErrorSamples = append(resp.ErrorSamples, ErrorPreview{
				LineNumber: rej.Line,
				Value:      rej.Value,
				Reason:     rej.Message,
			})
		}
	}

	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return resp
}

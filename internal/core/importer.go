package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Import merges a batch of pasted text (or pre-parsed candidates) into the
// number collection.
//
// Candidates are checked against the store at the time the import runs, so
// a batch parsed earlier cannot introduce a duplicate. Each accepted row gets
// a fresh id, the current import time, the source tag and the default
// assignee. The number collection is saved before one summary log entry is
// appended; if that save fails the collection is restored and no entry is
// written.
//
// A batch with no accepted rows leaves the number collection untouched but
// still records its summary entry.
// On failure the result still carries the parse counts and rejections.
func (s *Service) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	res := ImportResult{Records: []NumberRecord{}}

	err := s.run(ctx, "import", func(ctx context.Context, logger *slog.Logger) error {
		parser := NewParser(s.store.Numbers())

		var parsed ParseResult
		if req.Text != "" || len(req.Candidates) == 0 {
			parsed = parser.Parse(req.Text)
		} else {
			parsed = parser.Recheck(req.Candidates)
		}
		res.Stats = parsed.Stats
		res.Rejected = parsed.Rejected

		logger = logger.With(
			"accepted", parsed.Stats.Accepted,
			"rejected", parsed.Stats.Rejected(),
		)

		source := strings.TrimSpace(req.Source)
		if source == "" {
			source = s.defaultSource
		}
		assignee := strings.TrimSpace(req.DefaultAssignee)

		if len(parsed.Candidates) == 0 {
			logger.Info("nothing to import")
			s.appendLog(ctx, logger, ActionPasteImport, importSummary(source, 0, parsed.Stats, ""))
			return nil
		}

		if assignee != "" && !s.personExists(assignee) {
			logger.Warn("default assignee is not a known person", "assignee", assignee)
		}

		snap := s.store.takeSnapshot()
		importTime := s.timestamp()

		records := make([]NumberRecord, 0, len(parsed.Candidates))
		s.store.update(func() {
			for _, c := range parsed.Candidates {
				rec := NumberRecord{
					ID:          s.store.nextNumberID(),
					PhoneNumber: c.PhoneNumber,
					Name:        c.Name,
					Age:         c.Age,
					Assignee:    assignee,
					ImportTime:  importTime,
					FileName:    source,
					Note:        c.Note,
				}
				s.store.numbers = append(s.store.numbers, rec)
				records = append(records, rec.clone())
			}
		})

		if err := s.commit(ctx, logger, snap, CollectionNumbers); err != nil {
			return err
		}

		res.Added = len(records)
		res.Records = records

		s.appendLog(ctx, logger, ActionPasteImport, importSummary(source, res.Added, parsed.Stats, assignee))
		return nil
	})
	if err != nil {
		return ImportResult{Records: []NumberRecord{}, Stats: res.Stats, Rejected: res.Rejected}, err
	}
	return res, nil
}

// ImportReader reads an import file with the configured encoding and size
// limit, then imports its text.
func (s *Service) ImportReader(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error) {
	text, err := ReadImportText(r, s.importEncoding, s.maxImportBytes)
	if err != nil {
		return ImportResult{Records: []NumberRecord{}}, err
	}
	req.Text = text
	req.Candidates = nil
	return s.Import(ctx, req)
}

// importSummary builds the log content for one import batch.
func importSummary(source string, added int, st ParseStats, assignee string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s：新增 %d 条号码，库内重复 %d 条，批内重复 %d 条，格式错误 %d 条",
		source, added, st.DuplicateInStore, st.DuplicateInBatch, st.Malformed)
	if assignee != "" {
		fmt.Fprintf(&b, "，分配给 %s", assignee)
	}
	return b.String()
}

// personExists reports whether displayName names a current person.
func (s *Service) personExists(displayName string) bool {
	found := false
	s.store.view(func() {
		for _, p := range s.store.persons {
			if p.DisplayName == displayName {
				found = true
				return
			}
		}
	})
	return found
}

package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Export resolves a selection and, when AssignTo is set, assigns every
// selected number to that display name.
//
// Modes:
//   - all: the whole number collection, in store order.
//   - range: numbers whose id lies within [From, To]. Bounds are inclusive,
//     reversed bounds are swapped and out-of-range values simply match
//     fewer records.
//   - random: Count numbers drawn from the unassigned ones only, so random
//     assignment never takes a number away from its current owner.
//
// all and range assignment overwrite any existing assignee. AssignTo is a
// plain string: a name that is not a current person is still applied.
//
// Without AssignTo nothing but the log changes. On failure the result holds
// no records.
func (s *Service) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	mode, err := ParseExportMode(string(req.Mode))
	if err != nil {
		return ExportResult{Records: []NumberRecord{}}, err
	}
	req.Mode = mode
	if mode == ExportRandom && req.Count < 0 {
		return ExportResult{Mode: mode, Records: []NumberRecord{}}, ValidationError{
			Field:   "count",
			Value:   fmt.Sprint(req.Count),
			Message: "count must not be negative",
		}
	}
	if req.From > req.To {
		req.From, req.To = req.To, req.From
	}
	assignTo := strings.TrimSpace(req.AssignTo)

	res := ExportResult{Mode: mode, Records: []NumberRecord{}}
	err = s.run(ctx, "export", func(ctx context.Context, logger *slog.Logger) error {
		logger = logger.With("mode", string(mode))

		selected := s.selectNumbers(req)

		if assignTo == "" {
			res.Records = selected
			s.appendLog(ctx, logger, ActionExport,
				fmt.Sprintf("导出%s：共 %d 条", mode.label(req), len(selected)))
			return nil
		}

		if !s.personExists(assignTo) {
			logger.Warn("assignee is not a known person", "assignee", assignTo)
		}

		if len(selected) > 0 {
			snap := s.store.takeSnapshot()
			s.store.update(func() {
				ids := make(map[int64]struct{}, len(selected))
				for _, n := range selected {
					ids[n.ID] = struct{}{}
				}
				for i := range s.store.numbers {
					if _, ok := ids[s.store.numbers[i].ID]; ok {
						s.store.numbers[i].Assignee = assignTo
					}
				}
			})
			if err := s.commit(ctx, logger, snap, CollectionNumbers); err != nil {
				return err
			}
			for i := range selected {
				selected[i].Assignee = assignTo
			}
		}

		res.Records = selected
		res.AssignedCount = len(selected)

		s.appendLog(ctx, logger, ActionExportAssign,
			fmt.Sprintf("导出%s：共 %d 条，分配给 %s", mode.label(req), len(selected), assignTo))
		return nil
	})
	if err != nil {
		return ExportResult{Mode: mode, Records: []NumberRecord{}}, err
	}
	return res, nil
}

// selectNumbers resolves the export mode against the current collection.
func (s *Service) selectNumbers(req ExportRequest) []NumberRecord {
	numbers := s.store.Numbers()

	switch req.Mode {
	case ExportRange:
		out := make([]NumberRecord, 0)
		for _, n := range numbers {
			if n.ID >= req.From && n.ID <= req.To {
				out = append(out, n)
			}
		}
		return out
	case ExportRandom:
		return s.sampler.Sample(numbers, req.Count)
	default:
		return numbers
	}
}

package core

import (
	"context"
	"log/slog"
	"strings"
)

// AuditAction is the category tag of a log entry.
type AuditAction string

const (
	ActionPasteImport  AuditAction = "粘贴导入"
	ActionExport       AuditAction = "导出"
	ActionExportAssign AuditAction = "导出并分配"
	ActionAddNumber    AuditAction = "添加号码"
	ActionEditNumber   AuditAction = "编辑号码"
	ActionDeleteNumber AuditAction = "删除号码"
	ActionAddPerson    AuditAction = "添加人员"
	ActionEditPerson   AuditAction = "编辑人员"
	ActionDeletePerson AuditAction = "删除人员"
)

// appendLog records one entry and persists the log collection.
//
// Logging is best-effort: if the save fails the entry stays in memory, a
// warning is written and the data change that preceded it stands. It is
// retried implicitly by the next successful log save.
func (s *Service) appendLog(ctx context.Context, logger *slog.Logger, action AuditAction, content string) LogEntry {
	entry := LogEntry{
		Timestamp: s.timestamp(),
		Action:    string(action),
		Content:   content,
	}

	s.store.update(func() {
		s.store.logs = append(s.store.logs, entry)
	})

	if err := s.store.Save(ctx, CollectionLogs); err != nil {
		logger.Warn("log entry not persisted",
			"action", entry.Action,
			"error", err,
		)
	}
	return entry
}

// LogFilter narrows a log listing. Zero values match everything.
type LogFilter struct {
	Action   string // Exact action tag
	Contains string // Substring of the content
	Limit    int    // Keep only the most recent N matches
}

// Logs returns matching log entries, oldest first.
func (s *Service) Logs(filter LogFilter) []LogEntry {
	var out []LogEntry
	for _, l := range s.store.Logs() {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.Contains != "" && !strings.Contains(l.Content, filter.Contains) {
			continue
		}
		out = append(out, l)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	if out == nil {
		out = []LogEntry{}
	}
	return out
}

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/storage"
)

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

// newTestApp returns an app over an in-memory store so commands skip the
// config and storage setup.
func newTestApp(t *testing.T) (*app, *storage.Memory) {
	t.Helper()

	blobs := storage.NewMemory()
	store := core.NewStore(blobs)
	store.Load(context.Background())

	svc := core.NewService(store, core.Options{
		MaxWait: time.Second,
		Sampler: core.NewSeededSampler(7),
		Clock:   func() time.Time { return testNow },
	})
	return &app{svc: svc}, blobs
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, a *app, stdin string, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mustExecute(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, _, err := execute(t, a, "", args...)
	require.NoError(t, err, "roster %s", strings.Join(args, " "))
	return out
}

func seed(t *testing.T, a *app) {
	t.Helper()
	mustExecute(t, a, "import", "--text", "13800000001,甲,30\n13800000002,乙,\n13800000003,丙,41,备注")
}

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return rows
}

// ============================================================================
// Import
// ============================================================================

func TestImportCmd_Text(t *testing.T) {
	a, _ := newTestApp(t)

	out := mustExecute(t, a, "import", "--text", "+1-888-000-0001,导入一,31,\n+1-888-000-0002,导入二,32,\n,坏行,1")

	assert.Contains(t, out, "新增 2 条")
	assert.Contains(t, out, "格式错误 1 条")
	assert.Contains(t, out, "line 3")

	numbers := a.svc.Store().Numbers()
	require.Len(t, numbers, 2)
	assert.Equal(t, core.DefaultSource, numbers[0].FileName)
}

func TestImportCmd_Stdin(t *testing.T) {
	a, _ := newTestApp(t)

	out, _, err := execute(t, a, "13900000000,甲,20\n13900000001,乙,21\n", "import", "--source", "剪贴板")
	require.NoError(t, err)
	assert.Contains(t, out, "新增 2 条")

	for _, n := range a.svc.Store().Numbers() {
		assert.Equal(t, "剪贴板", n.FileName)
	}
}

func TestImportCmd_FileWithAssign(t *testing.T) {
	a, _ := newTestApp(t)
	mustExecute(t, a, "person", "add", "--name", "Team", "--purpose", "X")

	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFF13900000000,甲,20\n"), 0o644))

	mustExecute(t, a, "import", "--file", path, "--assign", "Team-X")

	numbers := a.svc.Store().Numbers()
	require.Len(t, numbers, 1)
	assert.Equal(t, "13900000000", numbers[0].PhoneNumber, "BOM is stripped")
	assert.Equal(t, "batch.csv", numbers[0].FileName)
	assert.Equal(t, "Team-X", numbers[0].Assignee)
}

func TestImportCmd_DryRun(t *testing.T) {
	a, blobs := newTestApp(t)
	seed(t, a)
	puts := blobs.Puts("numbers")

	out := mustExecute(t, a, "import", "--dry-run", "--text", "13800000001,甲\n13900000000,新,22")

	assert.Contains(t, out, "可导入 1 条")
	assert.Contains(t, out, "库内重复 1 条")
	assert.Contains(t, out, "+ line 2: 13900000000")
	assert.Len(t, a.svc.Store().Numbers(), 3)
	assert.Equal(t, puts, blobs.Puts("numbers"))
}

func TestImportCmd_TextAndFileConflict(t *testing.T) {
	a, _ := newTestApp(t)

	_, _, err := execute(t, a, "", "import", "--text", "1", "--file", "x.csv")
	assert.Error(t, err)
}

// ============================================================================
// Export
// ============================================================================

func TestExportCmd_RangeCSV(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	out, stderr, err := execute(t, a, "", "export", "--mode", "range", "--from", "3", "--to", "2")
	require.NoError(t, err)

	rows := readCSV(t, out)
	require.Len(t, rows, 3)
	assert.Equal(t, exportColumns, rows[0])
	assert.Equal(t, []string{"2", "13800000002", "乙", "", "", "2026-10-18 09:30:00", core.DefaultSource}, rows[1])
	assert.Equal(t, "3", rows[2][0])
	assert.Equal(t, "41", rows[2][3])
	assert.Contains(t, stderr, "导出 2 条")
}

func TestExportCmd_RandomAssignJSON(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)
	mustExecute(t, a, "person", "add", "--name", "Team", "--purpose", "X")

	out := mustExecute(t, a, "export", "--mode", "random", "--count", "2", "--assign", "Team-X", "--format", "json")

	var records []core.NumberRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "Team-X", r.Assignee)
	}
	assert.Equal(t, 1, a.svc.Stats().Unassigned)

	logs := a.svc.Logs(core.LogFilter{Action: string(core.ActionExportAssign)})
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Content, "分配给 Team-X")
}

func TestExportCmd_OutFile(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)
	path := filepath.Join(t.TempDir(), "all.csv")

	out := mustExecute(t, a, "export", "--out", path)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, string(data)), 4)
}

func TestExportCmd_UnwritableOutAssignsNothing(t *testing.T) {
	a, blobs := newTestApp(t)
	seed(t, a)
	puts := blobs.Puts("numbers")
	path := filepath.Join(t.TempDir(), "missing", "x.csv")

	_, _, err := execute(t, a, "", "export", "--mode", "all", "--assign", "Team X", "--out", path)
	require.Error(t, err)

	assert.Equal(t, 3, a.svc.Stats().Unassigned)
	assert.Equal(t, puts, blobs.Puts("numbers"))
	assert.Empty(t, a.svc.Logs(core.LogFilter{Action: string(core.ActionExportAssign)}))
}

func TestExportCmd_FailedExportRemovesOutFile(t *testing.T) {
	a, blobs := newTestApp(t)
	seed(t, a)
	path := filepath.Join(t.TempDir(), "x.csv")

	blobs.FailPut("numbers", assert.AnError)
	_, _, err := execute(t, a, "", "export", "--assign", "Team X", "--out", path)
	require.ErrorIs(t, err, core.ErrPersistence)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportCmd_InvalidArgs(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	tests := []struct {
		name       string
		args       []string
		validation bool
	}{
		{"unknown mode", []string{"export", "--mode", "sideways"}, true},
		{"unknown format", []string{"export", "--format", "xml"}, false},
		{"negative count", []string{"export", "--mode", "random", "--count", "-1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, a, "", tt.args...)
			require.Error(t, err)
			if tt.validation {
				var ve core.ValidationError
				assert.ErrorAs(t, err, &ve)
			}
		})
	}

	assert.Len(t, a.svc.Logs(core.LogFilter{Action: string(core.ActionExport)}), 0)
}

func TestSampleCmd(t *testing.T) {
	a, blobs := newTestApp(t)
	seed(t, a)
	puts := blobs.Puts("numbers")

	out := mustExecute(t, a, "sample", "2")
	assert.Len(t, readCSV(t, out), 3)
	assert.Equal(t, puts, blobs.Puts("numbers"))
	assert.Equal(t, 3, a.svc.Stats().Unassigned)

	_, _, err := execute(t, a, "", "sample", "many")
	var ve core.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// ============================================================================
// Numbers and persons
// ============================================================================

func TestNumberCmds(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	out := mustExecute(t, a, "number", "add", "--phone", "13700000000", "--name", "丁", "--age", "50")
	assert.Contains(t, out, "4\t13700000000\t丁\t50")

	mustExecute(t, a, "number", "edit", "4", "--note", "新备注")
	rec, err := a.svc.Number(4)
	require.NoError(t, err)
	assert.Equal(t, "丁", rec.Name, "fields not given are kept")
	require.NotNil(t, rec.Age)
	assert.Equal(t, 50, *rec.Age)
	assert.Equal(t, "新备注", rec.Note)

	mustExecute(t, a, "number", "edit", "4", "--age", "")
	rec, err = a.svc.Number(4)
	require.NoError(t, err)
	assert.Nil(t, rec.Age)

	_, _, err = execute(t, a, "", "number", "add", "--phone", "138-0000-0001")
	assert.ErrorIs(t, err, core.ErrDuplicatePhone)

	_, _, err = execute(t, a, "", "number", "add", "--name", "无号码")
	assert.Error(t, err, "phone is required")

	out = mustExecute(t, a, "number", "delete", "4")
	assert.Contains(t, out, "13700000000")

	_, _, err = execute(t, a, "", "number", "delete", "4")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, _, err = execute(t, a, "", "number", "delete", "abc")
	var ve core.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestNumberListCmd(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)
	mustExecute(t, a, "person", "add", "--name", "甲")
	mustExecute(t, a, "export", "--mode", "range", "--from", "1", "--to", "1", "--assign", "甲")

	out := mustExecute(t, a, "number", "list")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	out = mustExecute(t, a, "number", "list", "--unassigned", "--format", "csv")
	assert.Len(t, readCSV(t, out), 3)

	out = mustExecute(t, a, "number", "list", "--assignee", "甲")
	assert.True(t, strings.HasPrefix(out, "1\t13800000001"))
}

func TestPersonCmds(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	out := mustExecute(t, a, "person", "add", "--name", "Team", "--purpose", "X", "--remark", "销售")
	assert.Contains(t, out, "Team-X")
	mustExecute(t, a, "export", "--mode", "range", "--from", "1", "--to", "2", "--assign", "Team-X")

	out = mustExecute(t, a, "person", "edit", "1", "--purpose", "Y")
	assert.Contains(t, out, "迁移 2 条号码到 Team-Y")
	p, err := a.svc.Person(1)
	require.NoError(t, err)
	assert.Equal(t, "销售", p.Remark, "fields not given are kept")

	_, _, err = execute(t, a, "", "person", "delete", "1")
	assert.ErrorIs(t, err, core.ErrPersonInUse)

	out = mustExecute(t, a, "person", "delete", "1", "--release")
	assert.Contains(t, out, "释放 2 条号码")
	assert.Equal(t, 3, a.svc.Stats().Unassigned)

	out = mustExecute(t, a, "person", "list", "--json")
	assert.JSONEq(t, `[]`, out)
}

// ============================================================================
// Logs and stats
// ============================================================================

func TestLogsCmd(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)
	mustExecute(t, a, "export")
	mustExecute(t, a, "number", "add", "--phone", "13700000000")

	out := mustExecute(t, a, "logs")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], string(core.ActionPasteImport))
	assert.Contains(t, lines[2], string(core.ActionAddNumber))

	out = mustExecute(t, a, "logs", "--action", string(core.ActionExport), "--json")
	var entries []core.LogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-10-18 09:30:00", entries[0].Timestamp)

	out = mustExecute(t, a, "logs", "--limit", "1")
	assert.Contains(t, out, "13700000000")
	assert.NotContains(t, out, string(core.ActionPasteImport))
}

func TestStatsCmd(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	out := mustExecute(t, a, "stats", "--json")
	assert.JSONEq(t, `{"numbers":3,"unassigned":3,"persons":0,"logs":1}`, out)

	out = mustExecute(t, a, "stats")
	assert.Contains(t, out, "号码 3 条")
}

// ============================================================================
// Setup and errors
// ============================================================================

func TestOpen_MemoryBackendFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", config.BackendMemory)
	t.Setenv("LOG_LEVEL", "error")

	a := &app{}
	out := mustExecute(t, a, "stats")
	assert.Contains(t, out, "号码 0 条")

	require.NotNil(t, a.cfg)
	assert.Equal(t, config.BackendMemory, a.cfg.Store.Backend)
	require.NoError(t, a.shutdown())
	assert.Nil(t, a.svc)
	assert.NoError(t, a.shutdown(), "shutdown is idempotent")
}

func TestOpen_InvalidConfig(t *testing.T) {
	t.Setenv("STORE_BACKEND", config.BackendPostgres)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	a := &app{}
	_, _, err := execute(t, a, "", "stats")
	assert.Error(t, err)
	assert.Nil(t, a.svc)
}

func TestServiceOptions(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{MaxWait: 5 * time.Second, RejectWhenBusy: true, RandomSeed: 9},
		Import: config.ImportConfig{Encoding: "gb18030", MaxBytes: 1024},
	}

	opts := serviceOptions(cfg)
	assert.Equal(t, 5*time.Second, opts.MaxWait)
	assert.True(t, opts.RejectWhenBusy)
	assert.Equal(t, "gb18030", opts.ImportEncoding)
	assert.Equal(t, int64(1024), opts.MaxImportBytes)
	assert.NotNil(t, opts.Sampler)

	cfg.Engine.RandomSeed = 0
	assert.Nil(t, serviceOptions(cfg).Sampler)
}

func TestErrorText(t *testing.T) {
	got := errorText(core.ErrBusy)
	assert.Contains(t, got, core.ErrBusy.Error())
	assert.Contains(t, got, "OP001")

	plain := errors.New("something odd")
	assert.Equal(t, "something odd", errorText(plain))
}

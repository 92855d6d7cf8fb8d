package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	internalApp "github.com/felixgeelhaar/homework/internal/app"
	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/homework/infrastructure/persistence"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homework/pkg/config"
	"github.com/felixgeelhaar/homework/pkg/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, seed bool) *App {
	t.Helper()

	cfg := config.Defaults()
	cfg.AppEnv = "test"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "homework.db")
	cfg.SeedSampleData = seed

	container, err := internalApp.NewContainer(context.Background(), cfg, observability.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		SetApp(nil)
		_ = container.Close()
	})

	a := NewApp(container)
	SetApp(a)
	return a
}

// execute resets cmd's flags, applies the given ones and calls RunE.
func execute(t *testing.T, cmd *cobra.Command, flags map[string]string, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetContext(context.Background())

	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestStatsCmd(t *testing.T) {
	setupTestApp(t, true)

	out, err := execute(t, statsCmd, nil, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Total tasks:     3")
	assert.Contains(t, out, "Total pages:     55")

	out, err = execute(t, statsCmd, map[string]string{"json": "true"}, "")
	require.NoError(t, err)
	var st application.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 3, st.TotalTasks)
	assert.Equal(t, 0, st.CompletedTasks)
}

func TestTeachersCmd(t *testing.T) {
	setupTestApp(t, true)

	out, err := execute(t, teachersCmd, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Computer Physics\nSB\nSP\n", out)
}

func TestExportImportRoundTrip(t *testing.T) {
	a := setupTestApp(t, true)
	ctx := context.Background()
	before := a.Store.List(ctx, application.ListFilter{})

	path := filepath.Join(t.TempDir(), "backup.json")
	_, err := execute(t, exportCmd, map[string]string{"output": path}, "")
	require.NoError(t, err)

	for _, dto := range before {
		require.NoError(t, a.Store.Delete(ctx, dto.ID))
	}
	require.Zero(t, a.Store.Stats(ctx).TotalTasks)

	out, err := execute(t, importCmd, nil, "", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 tasks")

	after := a.Store.List(ctx, application.ListFilter{})
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Description, after[i].Description)
		assert.True(t, before[i].Deadline.Equal(after[i].Deadline))
	}
}

func TestExportCmd_Formats(t *testing.T) {
	setupTestApp(t, true)

	tests := []struct {
		format string
		prefix string
	}{
		{"json", "["},
		{"csv", "id,teacher,task"},
		{"pdf", "%PDF"},
		{"ics", "BEGIN:VCALENDAR"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := execute(t, exportCmd, map[string]string{"format": tt.format}, "")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, tt.prefix), "output starts with %.20q", out)
		})
	}

	_, err := execute(t, exportCmd, map[string]string{"format": "xml"}, "")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestImportCmd_RejectsObject(t *testing.T) {
	a := setupTestApp(t, true)

	_, err := execute(t, importCmd, nil, `{"id": 1}`, "-")
	assert.ErrorIs(t, err, task.ErrImport)
	assert.Equal(t, 3, a.Store.Stats(context.Background()).TotalTasks)
}

type unwritableRepo struct{}

func (unwritableRepo) Load(context.Context) ([]*task.Task, bool, error) { return nil, true, nil }

func (unwritableRepo) SaveAll(context.Context, []*task.Task) error { return errors.New("disk full") }

func TestImportCmd_UnsavedChange(t *testing.T) {
	data, err := setupTestApp(t, true).Store.Serialize(context.Background())
	require.NoError(t, err)

	store, err := application.Open(context.Background(), unwritableRepo{}, persistence.NewCodec())
	require.NoError(t, err)
	SetApp(&App{Store: store})

	out, err := execute(t, importCmd, nil, string(data), "-")
	require.ErrorIs(t, err, task.ErrPersistence)
	assert.Contains(t, err.Error(), "3 imported tasks changed but not saved")
	assert.NotContains(t, err.Error(), "failed to import")
	assert.Contains(t, out, "Imported 3 tasks")
	assert.Equal(t, 3, store.Stats(context.Background()).TotalTasks)
}

func TestUnsaved(t *testing.T) {
	saveErr := &task.PersistenceError{Op: "save", Err: errors.New("disk full")}
	err := Unsaved("task 7", saveErr)
	assert.ErrorIs(t, err, task.ErrPersistence)
	assert.Contains(t, err.Error(), "task 7 changed but not saved")

	other := errors.New("boom")
	assert.Equal(t, other, Unsaved("task 7", other))
}

func TestImportCmd_MissingFile(t *testing.T) {
	setupTestApp(t, false)

	_, err := execute(t, importCmd, nil, "", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHealthCmd(t *testing.T) {
	setupTestApp(t, false)

	out, err := execute(t, healthCmd, nil, "")
	require.NoError(t, err)
	assert.Contains(t, out, "status: healthy")
	assert.Contains(t, out, "storage")
	assert.Contains(t, out, "tasks")

	out, err = execute(t, healthCmd, map[string]string{"json": "true"}, "")
	require.NoError(t, err)
	var report observability.OverallHealth
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, observability.HealthStatusHealthy, report.Status)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "homework dev")
}

func TestRootLoadsAppLazily(t *testing.T) {
	t.Cleanup(func() {
		SetApp(nil)
		SetLoader(nil)
	})
	SetApp(nil)

	loads := 0
	SetLoader(func(ctx context.Context) (*App, error) {
		loads++
		assert.NotEmpty(t, observability.CorrelationIDFromContext(ctx))
		return &App{}, nil
	})

	rootCmd.SetArgs([]string{"version"})
	rootCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Zero(t, loads, "version runs without the store")

	rootCmd.SetArgs([]string{"teachers"})
	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, ErrNoApp)
	assert.Equal(t, 1, loads)
}

func TestStoreClockDrivesLabels(t *testing.T) {
	a := setupTestApp(t, false)
	now := a.Store.Now()
	dto, err := a.Store.Create(context.Background(), application.CreateTaskCommand{
		Teacher:     "SP",
		Description: "Notes",
		PageCount:   1,
		Deadline:    now.Add(-time.Hour),
		Priority:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, " [OVERDUE]", UrgencyMarker(dto))
}

func TestEventsTailCmd_RequiresBroker(t *testing.T) {
	setupTestApp(t, false)

	_, err := execute(t, eventsTailCmd, nil, "")
	assert.ErrorContains(t, err, "RABBITMQ_URL")
}

func TestPrintEvent(t *testing.T) {
	var out bytes.Buffer
	printEvent(&out, &eventbus.ConsumedEvent{
		AggregateID: 1741596000000,
		RoutingKey:  task.RoutingKeyCompleted,
		OccurredAt:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Payload:     json.RawMessage(`{"task_id":1741596000000}`),
		Metadata:    eventbus.EventMetadata{CorrelationID: "corr-1"},
	})

	line := out.String()
	assert.Contains(t, line, task.RoutingKeyCompleted)
	assert.Contains(t, line, "task=1741596000000")
	assert.Contains(t, line, "correlation=corr-1")
	assert.True(t, strings.HasSuffix(line, "{\"task_id\":1741596000000}\n"))
}

package jobs

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/stockpile-go/internal/artifacts"
	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/models"
)

type recordingReporter struct {
	mu      sync.Mutex
	updates []models.ProgressUpdate
}

func (r *recordingReporter) Progress(u models.ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

type fakePruner struct {
	before time.Time
	n      int64
}

func (p *fakePruner) PruneRuns(before time.Time) (int64, error) {
	p.before = before
	return p.n, nil
}

type testApp struct {
	cfg       *config.Config
	artifacts *artifacts.Store
	history   *fakePruner
	reporter  *recordingReporter
	mgr       *JobManager
}

func (a *testApp) Config() *config.Config      { return a.cfg }
func (a *testApp) Artifacts() *artifacts.Store { return a.artifacts }
func (a *testApp) History() HistoryPruner      { return a.history }
func (a *testApp) Reporter() ProgressReporter  { return a.reporter }
func (a *testApp) JobManager() *JobManager     { return a.mgr }

// setupTestApp creates a job context backed by an in-memory filesystem.
func setupTestApp(t *testing.T) (*testApp, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := artifacts.NewWithFS(fs, "/downloads")
	require.NoError(t, err)
	app := &testApp{cfg: &config.Config{}, artifacts: store, history: &fakePruner{n: 3}, reporter: &recordingReporter{}}
	app.cfg.Downloads.Retention = time.Hour
	app.cfg.Downloads.HistoryRetention = 24 * time.Hour
	app.mgr = NewManager(app)
	return app, fs
}

func TestRunArtifactSweep(t *testing.T) {
	app, fs := setupTestApp(t)

	_, err := app.artifacts.Save("old.zip", []byte("1"))
	require.NoError(t, err)
	_, err = app.artifacts.Save("fresh.zip", []byte("2"))
	require.NoError(t, err)
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, fs.Chtimes(filepath.Join("/downloads", "old.zip"), old, old))

	require.NoError(t, RunArtifactSweep(app))

	list, err := app.artifacts.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh.zip", list[0].Name)

	last := app.reporter.updates[len(app.reporter.updates)-1]
	assert.True(t, last.Done)
	assert.Contains(t, last.Message, "Removed 1")
	assert.Equal(t, ArtifactSweepJob, last.JobID)
}

func TestRunArtifactSweepDisabled(t *testing.T) {
	app, _ := setupTestApp(t)
	app.cfg.Downloads.Retention = 0
	_, err := app.artifacts.Save("kept.zip", []byte("1"))
	require.NoError(t, err)

	require.NoError(t, RunArtifactSweep(app))

	list, err := app.artifacts.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRegisterDefaultJobs(t *testing.T) {
	app, _ := setupTestApp(t)
	RegisterDefaultJobs(app.mgr)

	statuses := app.mgr.GetStatus()
	require.Len(t, statuses, 2)
	assert.Equal(t, ArtifactSweepJob, statuses[0].ID)
	assert.Equal(t, HistoryPruneJob, statuses[1].ID)

	require.NoError(t, app.mgr.RunJob(ArtifactSweepJob, app))
	assert.Eventually(t, func() bool {
		return app.mgr.GetStatus()[0].Status == "success"
	}, time.Second, 5*time.Millisecond)
}

func TestRunHistoryPrune(t *testing.T) {
	app, _ := setupTestApp(t)

	require.NoError(t, RunHistoryPrune(app))
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), app.history.before, time.Minute)
	last := app.reporter.updates[len(app.reporter.updates)-1]
	assert.Contains(t, last.Message, "Removed 3")
	assert.Equal(t, HistoryPruneJob, last.JobID)
}

func TestStartJobsSchedules(t *testing.T) {
	app, _ := setupTestApp(t)
	app.cfg.Downloads.SweepInterval = time.Hour
	s := StartJobs(app)
	defer s.Stop()
	assert.Len(t, s.Jobs(), 2)
}

func TestStartJobsDisabled(t *testing.T) {
	app, _ := setupTestApp(t)
	app.cfg.Downloads.HistoryRetention = 0
	s := StartJobs(app)
	defer s.Stop()
	assert.Empty(t, s.Jobs())
}

package jobs_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vrsandeep/stockpile-go/internal/artifacts"
	"github.com/vrsandeep/stockpile-go/internal/config"
	"github.com/vrsandeep/stockpile-go/internal/jobs"
)

type fakeJobContext struct {
	cfg       *config.Config
	artifacts *artifacts.Store
	history   jobs.HistoryPruner
	reporter  jobs.ProgressReporter
	jobMgr    *jobs.JobManager
}

func (f *fakeJobContext) Config() *config.Config          { return f.cfg }
func (f *fakeJobContext) Artifacts() *artifacts.Store     { return f.artifacts }
func (f *fakeJobContext) History() jobs.HistoryPruner     { return f.history }
func (f *fakeJobContext) Reporter() jobs.ProgressReporter { return f.reporter }
func (f *fakeJobContext) JobManager() *jobs.JobManager    { return f.jobMgr }

func waitForStatus(t *testing.T, mgr *jobs.JobManager, id, want string) jobs.JobStatus {
	t.Helper()
	var last jobs.JobStatus
	assert.Eventually(t, func() bool {
		for _, s := range mgr.GetStatus() {
			if s.ID == id {
				last = s
				return s.Status == want
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return last
}

func TestManager_NewManager(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	assert.NotNil(t, mgr)
	assert.Empty(t, mgr.GetStatus())
}

func TestManager_RegisterAndGetStatus(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	mgr.Register("jobB", "Job B", func(ctx jobs.JobContext) error { return nil })
	mgr.Register("jobA", "Job A", func(ctx jobs.JobContext) error { return nil })
	statuses := mgr.GetStatus()
	assert.Len(t, statuses, 2)
	assert.Equal(t, "jobA", statuses[0].ID)
	assert.Equal(t, "Job B", statuses[1].Name)
	assert.Equal(t, "idle", statuses[0].Status)
}

func TestManager_RunJob_SuccessAndStatus(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	ctx.jobMgr = mgr
	called := make(chan struct{})
	mgr.Register("jobX", "Job X", func(ctx jobs.JobContext) error { close(called); return nil })
	err := mgr.RunJob("jobX", ctx)
	assert.NoError(t, err)
	<-called
	s := waitForStatus(t, mgr, "jobX", "success")
	assert.False(t, s.EndTime.IsZero())
}

func TestManager_RunJob_UsesAppContextByDefault(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	got := make(chan jobs.JobContext, 1)
	mgr.Register("jobD", "Job D", func(c jobs.JobContext) error { got <- c; return nil })
	assert.NoError(t, mgr.RunJob("jobD", nil))
	assert.Same(t, ctx, (<-got).(*fakeJobContext))
}

func TestManager_RunJob_Error(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	mgr.Register("jobE", "Job E", func(ctx jobs.JobContext) error { return errors.New("disk unavailable") })
	assert.NoError(t, mgr.RunJob("jobE", ctx))
	s := waitForStatus(t, mgr, "jobE", "failed")
	assert.Equal(t, "disk unavailable", s.Message)
}

func TestManager_RunJob_AlreadyRunning(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	ctx.jobMgr = mgr
	block := make(chan struct{})
	mgr.Register("jobY", "Job Y", func(ctx jobs.JobContext) error { <-block; return nil })
	_ = mgr.RunJob("jobY", ctx)
	err := mgr.RunJob("jobY", ctx)
	assert.Error(t, err)
	close(block)
}

func TestManager_RunJob_NotFound(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	err := mgr.RunJob("nojob", ctx)
	assert.Error(t, err)
}

func TestManager_RunJob_Panic(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	ctx.jobMgr = mgr
	mgr.Register("panicJob", "Panic Job", func(ctx jobs.JobContext) error { panic("fail") })
	err := mgr.RunJob("panicJob", ctx)
	assert.NoError(t, err)
	s := waitForStatus(t, mgr, "panicJob", "failed")
	assert.Contains(t, s.Message, "panicked")
}

func TestManager_Concurrency(t *testing.T) {
	ctx := &fakeJobContext{cfg: &config.Config{}}
	mgr := jobs.NewManager(ctx)
	ctx.jobMgr = mgr
	var mu sync.Mutex
	var count int
	block := make(chan struct{})
	mgr.Register("jobC", "Job C", func(ctx jobs.JobContext) error {
		mu.Lock()
		count++
		mu.Unlock()
		<-block
		return nil
	})
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			_ = mgr.RunJob("jobC", ctx)
			wg.Done()
		}()
	}
	wg.Wait()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, count, "job should only run once concurrently")
	mu.Unlock()
	close(block)
}

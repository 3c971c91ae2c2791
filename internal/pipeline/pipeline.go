// Package pipeline downloads every member of a collection, one item at a time,
// and packs the successful ones into a zip archive.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vrsandeep/stockpile-go/internal/archive"
	"github.com/vrsandeep/stockpile-go/internal/collection"
	"github.com/vrsandeep/stockpile-go/internal/models"
	"github.com/vrsandeep/stockpile-go/internal/provider"
)

var (
	ErrEmptyCollection = errors.New("the collection is empty")
	ErrRunInProgress   = errors.New("a download is already running for this provider")
	ErrRateLimited     = errors.New("the provider download limit was reached")
)

const DefaultResetDelay = 5 * time.Second

// Downloader fetches the full-resolution bytes of one resource.
type Downloader[T models.Resource] interface {
	Download(ctx context.Context, resource T, apiKey string) (*provider.Item, error)
}

// Saver hands a finished archive to the user. It returns the artifact name.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// Reporter receives notifications and progress updates. It must not block.
type Reporter interface {
	Notify(n models.Notification)
	Progress(u models.ProgressUpdate)
}

// Recorder keeps the history of runs. It is called when a run starts and
// again when it finishes.
type Recorder interface {
	RecordRun(run models.DownloadRun) error
}

type Options[T models.Resource] struct {
	Store      *collection.Store[T]
	Downloader Downloader[T]
	Saver      Saver
	Reporter   Reporter
	Recorder   Recorder      // optional
	ResetDelay time.Duration // defaults to DefaultResetDelay
}

// RunResult summarises a finished run.
type RunResult struct {
	RunID     string          `json:"run_id"`
	State     models.RunState `json:"state"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Artifact  string          `json:"artifact,omitempty"`
}

// Runner drives the download of one provider's collection.
// Idle -> Running -> Completed | Aborted, then back to Idle when the counter
// reset fires or the next run starts.
type Runner[T models.Resource] struct {
	store      *collection.Store[T]
	downloader Downloader[T]
	saver      Saver
	reporter   Reporter
	recorder   Recorder
	resetDelay time.Duration

	mu         sync.Mutex
	state      models.RunState
	run        models.DownloadRun
	generation uint64
	resetTimer *time.Timer
}

func New[T models.Resource](opts Options[T]) *Runner[T] {
	r := &Runner[T]{
		store:      opts.Store,
		downloader: opts.Downloader,
		saver:      opts.Saver,
		reporter:   opts.Reporter,
		recorder:   opts.Recorder,
		resetDelay: opts.ResetDelay,
		state:      models.RunIdle,
	}
	if r.resetDelay <= 0 {
		r.resetDelay = DefaultResetDelay
	}
	return r
}

func (r *Runner[T]) Provider() string { return r.store.Provider() }

func (r *Runner[T]) State() models.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Status returns the current run, or the last one while its result is still
// displayed. The zero value is returned before the first run.
func (r *Runner[T]) Status() models.DownloadRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.run
	run.State = r.state
	if r.state == models.RunRunning {
		run.Succeeded, run.Failed = r.store.Counters()
	}
	return run
}

// Run downloads the collection synchronously.
func (r *Runner[T]) Run(ctx context.Context, apiKey string) (*RunResult, error) {
	items, run, err := r.begin()
	if err != nil {
		return nil, err
	}
	return r.execute(ctx, apiKey, items, run)
}

// Start validates and starts a run in the background. The returned record
// describes the run as it starts; its outcome goes to the Reporter.
func (r *Runner[T]) Start(ctx context.Context, apiKey string) (models.DownloadRun, error) {
	items, run, err := r.begin()
	if err != nil {
		return models.DownloadRun{}, err
	}
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("Panic during %s download %s: %v", run.Provider, run.ID, p)
				r.finish(run, models.RunAborted, fmt.Sprintf("panic: %v", p))
			}
		}()
		if _, err := r.execute(ctx, apiKey, items, run); err != nil {
			log.Printf("%s download %s ended with error: %v", run.Provider, run.ID, err)
		}
	}()
	return run, nil
}

func (r *Runner[T]) begin() ([]T, models.DownloadRun, error) {
	r.mu.Lock()
	if r.state == models.RunRunning {
		r.mu.Unlock()
		return nil, models.DownloadRun{}, ErrRunInProgress
	}
	// A pending reset from the previous run must not touch this one.
	r.generation++
	if r.resetTimer != nil {
		r.resetTimer.Stop()
		r.resetTimer = nil
	}
	r.state = models.RunIdle
	r.store.ResetSucceeded()
	r.store.ResetFailed()

	// Busy first, so the snapshot cannot change under the run.
	r.store.SetBusy(true)
	items := r.store.Items()
	if len(items) == 0 {
		r.store.SetBusy(false)
		r.mu.Unlock()
		r.notify(models.Notification{
			Level:   models.LevelWarning,
			Code:    models.CodeEmptyCollection,
			Message: "There are no images in the collection",
		})
		return nil, models.DownloadRun{}, ErrEmptyCollection
	}

	r.state = models.RunRunning
	r.run = models.DownloadRun{
		ID:        uuid.NewString(),
		Provider:  r.store.Provider(),
		State:     models.RunRunning,
		Total:     len(items),
		StartedAt: time.Now(),
	}
	run := r.run
	r.mu.Unlock()

	r.record(run)
	log.Printf("Starting %s download %s of %d images", run.Provider, run.ID, run.Total)
	return items, run, nil
}

func (r *Runner[T]) execute(ctx context.Context, apiKey string, items []T, run models.DownloadRun) (*RunResult, error) {
	zw := archive.NewWriter()
	succeeded, failed := 0, 0

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			r.finish(withCounts(run, succeeded, failed), models.RunAborted, "download interrupted")
			return r.result(run, models.RunAborted, succeeded, failed, ""), err
		}

		id := models.Identify(item)
		downloaded, err := r.downloader.Download(ctx, item, apiKey)
		if err != nil {
			if provider.IsRateLimited(err) {
				return r.abortRateLimited(run, succeeded, failed)
			}
			failed++
			r.store.IncrementFailed()
			log.Printf("Failed to download %s image %s: %v", run.Provider, id, err)
			r.notify(models.Notification{
				Level:      models.LevelError,
				Code:       models.CodeItemFailed,
				Message:    fmt.Sprintf("Image %s could not be downloaded: %v", id, err),
				ResourceID: id,
			})
		} else {
			name := downloaded.Filename
			if name == "" {
				name = id + ".jpg"
			}
			zw.Add(name, downloaded.Data)
			succeeded++
			r.store.IncrementSucceeded()
		}

		r.progress(run, fmt.Sprintf("Downloaded %d of %d images", i+1, len(items)), i+1, succeeded, failed, false)
	}

	data, err := zw.Close(ctx)
	if err == nil {
		name := fmt.Sprintf("%s_collection_%d.zip", run.Provider, succeeded)
		var artifact string
		artifact, err = r.saver.Save(name, data)
		if err == nil {
			msg := fmt.Sprintf("Downloaded %d of %d images", succeeded, len(items))
			r.notify(models.Notification{
				Level:   models.LevelSuccess,
				Code:    models.CodeDownloadComplete,
				Message: msg,
			})
			final := withCounts(run, succeeded, failed)
			final.Artifact = artifact
			r.finish(final, models.RunCompleted, msg)
			r.progress(run, msg, len(items), succeeded, failed, true)
			return r.result(run, models.RunCompleted, succeeded, failed, artifact), nil
		}
	}

	err = fmt.Errorf("could not produce the %s archive: %w", run.Provider, err)
	log.Println(err)
	r.notify(models.Notification{
		Level:   models.LevelError,
		Code:    models.CodeArchiveFailed,
		Message: "The archive could not be created",
	})
	r.finish(withCounts(run, succeeded, failed), models.RunAborted, err.Error())
	r.progress(run, "The archive could not be created", len(items), succeeded, failed, true)
	return r.result(run, models.RunAborted, succeeded, failed, ""), err
}

// abortRateLimited stops the run at the first quota refusal. The store
// counters read as complete so the progress display closes; the returned
// result carries the true counts.
func (r *Runner[T]) abortRateLimited(run models.DownloadRun, succeeded, failed int) (*RunResult, error) {
	msg := "The download limit of the provider was reached, try again later"
	log.Printf("%s download %s stopped: rate limited after %d images", run.Provider, run.ID, succeeded)
	r.notify(models.Notification{
		Level:   models.LevelError,
		Code:    models.CodeRateLimited,
		Message: msg,
	})
	r.store.Complete()
	r.finish(withCounts(run, succeeded, failed), models.RunAborted, msg)
	r.progress(run, msg, run.Total, succeeded, failed, true)
	return r.result(run, models.RunAborted, succeeded, failed, ""), ErrRateLimited
}

// finish releases the collection and schedules the counter reset.
func (r *Runner[T]) finish(run models.DownloadRun, state models.RunState, message string) {
	now := time.Now()
	run.State = state
	run.Message = message
	run.FinishedAt = &now

	r.store.SetBusy(false)

	r.mu.Lock()
	r.state = state
	r.run = run
	gen := r.generation
	r.resetTimer = time.AfterFunc(r.resetDelay, func() { r.reset(gen) })
	r.mu.Unlock()

	r.record(run)
}

func (r *Runner[T]) reset(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation || r.state == models.RunRunning {
		return
	}
	r.store.ResetSucceeded()
	r.store.ResetFailed()
	r.state = models.RunIdle
	r.resetTimer = nil
}

func (r *Runner[T]) result(run models.DownloadRun, state models.RunState, succeeded, failed int, artifact string) *RunResult {
	return &RunResult{
		RunID:     run.ID,
		State:     state,
		Total:     run.Total,
		Succeeded: succeeded,
		Failed:    failed,
		Artifact:  artifact,
	}
}

func withCounts(run models.DownloadRun, succeeded, failed int) models.DownloadRun {
	run.Succeeded = succeeded
	run.Failed = failed
	return run
}

func (r *Runner[T]) record(run models.DownloadRun) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordRun(run); err != nil {
		log.Printf("Warning: could not record %s download %s: %v", run.Provider, run.ID, err)
	}
}

func (r *Runner[T]) notify(n models.Notification) {
	if r.reporter == nil {
		return
	}
	n.Provider = r.store.Provider()
	n.Time = time.Now()
	r.reporter.Notify(n)
}

func (r *Runner[T]) progress(run models.DownloadRun, message string, processed, succeeded, failed int, done bool) {
	if r.reporter == nil {
		return
	}
	status := string(models.RunRunning)
	if done {
		status = string(r.State())
	}
	r.reporter.Progress(models.ProgressUpdate{
		JobID:     run.ID,
		Provider:  run.Provider,
		Message:   message,
		Progress:  float64(processed) / float64(run.Total) * 100,
		Succeeded: succeeded,
		Failed:    failed,
		Total:     run.Total,
		Status:    status,
		Done:      done,
	})
}

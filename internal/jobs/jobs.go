package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/stockpile-go/internal/models"
)

const (
	ArtifactSweepJob = "artifact-sweep"
	HistoryPruneJob  = "history-prune"
)

// RegisterDefaultJobs adds the maintenance jobs to the manager.
func RegisterDefaultJobs(jm *JobManager) {
	jm.Register(ArtifactSweepJob, "Remove expired archives", RunArtifactSweep)
	jm.Register(HistoryPruneJob, "Prune download history", RunHistoryPrune)
}

// StartJobs starts the background job scheduler. The caller stops it on shutdown.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startArtifactSweepJob(s, app)
	startHistoryPruneJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startArtifactSweepJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Downloads.SweepInterval
	if interval <= 0 {
		log.Println("Artifact sweep interval is 0, scheduled sweep is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %s.", ArtifactSweepJob, interval)

	_, err := s.Every(interval).WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", ArtifactSweepJob)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		err := app.JobManager().RunJob(ArtifactSweepJob, app)
		if err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", ArtifactSweepJob, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", ArtifactSweepJob, err)
	}
}

func startHistoryPruneJob(s *gocron.Scheduler, app JobContext) {
	if app.Config().Downloads.HistoryRetention <= 0 {
		log.Println("History retention is 0, download history is kept forever.")
		return
	}

	log.Printf("Scheduling job: '%s' to run daily.", HistoryPruneJob)
	_, err := s.Every(1).Day().At("03:00").Do(func() {
		log.Println("Scheduler is triggering job:", HistoryPruneJob)
		if err := app.JobManager().RunJob(HistoryPruneJob, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", HistoryPruneJob, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", HistoryPruneJob, err)
	}
}

// RunArtifactSweep removes archives older than the configured retention.
func RunArtifactSweep(app JobContext) error {
	retention := app.Config().Downloads.Retention
	if retention <= 0 {
		sendProgress(app, ArtifactSweepJob, "Artifact retention is disabled.", 100, true)
		return nil
	}

	sendProgress(app, ArtifactSweepJob, "Removing expired archives...", 0, false)
	removed, err := app.Artifacts().Sweep(retention)
	if err != nil {
		sendProgress(app, ArtifactSweepJob, "Artifact sweep failed.", 100, true)
		return fmt.Errorf("artifact sweep: %w", err)
	}
	sendProgress(app, ArtifactSweepJob, fmt.Sprintf("Removed %d expired archives.", removed), 100, true)
	return nil
}

// RunHistoryPrune deletes download runs older than the history retention.
func RunHistoryPrune(app JobContext) error {
	retention := app.Config().Downloads.HistoryRetention
	if retention <= 0 || app.History() == nil {
		sendProgress(app, HistoryPruneJob, "History pruning is disabled.", 100, true)
		return nil
	}

	removed, err := app.History().PruneRuns(time.Now().Add(-retention))
	if err != nil {
		sendProgress(app, HistoryPruneJob, "History pruning failed.", 100, true)
		return fmt.Errorf("history prune: %w", err)
	}
	sendProgress(app, HistoryPruneJob, fmt.Sprintf("Removed %d old download records.", removed), 100, true)
	return nil
}

func sendProgress(app JobContext, jobID, message string, progress float64, done bool) {
	r := app.Reporter()
	if r == nil {
		return
	}
	status := "running"
	if done {
		status = "completed"
	}
	r.Progress(models.ProgressUpdate{
		JobID:    jobID,
		Message:  message,
		Progress: progress,
		Status:   status,
		Done:     done,
	})
}

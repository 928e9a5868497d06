package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	"github.com/model-my-watershed/mmw-backend/internal/export/repository"
)

// lookback bounds how far back a project change can be and still trigger a
// nightly re-export.
const lookback = 48 * time.Hour

type Scheduler struct {
	links *repository.LinkRepo
	jobs  *jobs.Repo
}

func NewScheduler(links *repository.LinkRepo, jobRepo *jobs.Repo) *Scheduler {
	return &Scheduler{links: links, jobs: jobRepo}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	//  (12:00 AM)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.runAutosync()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (autosync exports nightly at 12:00AM)")
	c.Start()
}

// runAutosync queues a re-export for every autosync link whose project
// changed since the last export. The worker drains the queue.
func (s *Scheduler) runAutosync() {
	log.Println("Nightly autosync started...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	candidates, err := s.links.ListAutosync(ctx, time.Now().Add(-lookback))
	if err != nil {
		log.Printf("Autosync listing failed: %v", err)
		return
	}

	queued := 0
	for _, cand := range candidates {
		job, err := s.jobs.Start(ctx)
		if err != nil {
			log.Printf("Autosync job create failed for project %d: %v", cand.ProjectID, err)
			continue
		}
		err = s.jobs.Enqueue(ctx, jobs.QueuedExport{
			JobID:     job.ID,
			ProjectID: cand.ProjectID,
			UserID:    cand.UserID,
		})
		if err != nil {
			log.Printf("Autosync enqueue failed for project %d: %v", cand.ProjectID, err)
			continue
		}
		queued++
	}

	log.Printf("Nightly autosync queued %d of %d candidates at %s",
		queued, len(candidates), time.Now().Format(time.RFC1123))
}

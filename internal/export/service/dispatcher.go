package service

import (
	"context"
	"log"
	"time"

	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
)

// chainTimeout bounds one whole export chain, shapefile upload included.
const chainTimeout = 10 * time.Minute

// statusWriteTimeout bounds the terminal job-record write, which runs on
// its own context: the chain's context is often already dead by then.
const statusWriteTimeout = 5 * time.Second

// Dispatcher runs export chains asynchronously, tracking each as a job
// record the caller can poll.
type Dispatcher struct {
	jobs *jobs.Repo
}

func NewDispatcher(jobRepo *jobs.Repo) *Dispatcher {
	return &Dispatcher{jobs: jobRepo}
}

// Dispatch records a started job, runs fn detached from the request
// context, and stores the terminal state. Once dispatched there is no
// cancellation hook.
func (d *Dispatcher) Dispatch(fn func(ctx context.Context) (any, error)) (*jobs.Job, error) {
	job, err := d.jobs.Start(context.Background())
	if err != nil {
		return nil, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()

		d.Execute(ctx, job.ID, fn)
	}()

	return job, nil
}

// Execute runs fn for an already-recorded job and stores the outcome. Used
// directly by the queue worker.
func (d *Dispatcher) Execute(ctx context.Context, jobID string, fn func(ctx context.Context) (any, error)) {
	result, err := fn(ctx)

	// Deliberately not the chain context: when the chain dies on its
	// deadline the failure must still reach the job record, or pollers
	// see "started" until the TTL reaps it.
	wctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if err != nil {
		log.Printf("[error] operation=export_chain job=%s error=%v", jobID, err)
		if ferr := d.jobs.Fail(wctx, jobID, err.Error()); ferr != nil {
			log.Printf("[error] operation=job_fail job=%s error=%v", jobID, ferr)
		}
		return
	}
	if cerr := d.jobs.Complete(wctx, jobID, result); cerr != nil {
		log.Printf("[error] operation=job_complete job=%s error=%v", jobID, cerr)
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix = "export:job:"   // job record: export:job:{job_id}
	queueKey     = "export:queue"  // pending autosync exports, FIFO
	jobTTL       = 24 * time.Hour
)

// Job statuses.
const (
	StatusStarted  = "started"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

var ErrJobNotFound = errors.New("export job not found")

// Job tracks one export chain execution.
type Job struct {
	ID        string          `json:"job_uuid"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started"`
	UpdatedAt time.Time       `json:"finished,omitempty"`
}

// QueuedExport is the payload the worker consumes for deferred syncs.
type QueuedExport struct {
	JobID     string `json:"job_id"`
	ProjectID int64  `json:"project_id"`
	UserID    string `json:"user_id"`
}

// Repo stores job records and the pending queue in Redis.
type Repo struct {
	client *redis.Client
}

func NewRepo(client *redis.Client) *Repo {
	return &Repo{client: client}
}

// Start creates a new job record in the started state and returns it.
func (r *Repo) Start(ctx context.Context) (*Job, error) {
	job := &Job{
		ID:        uuid.New().String(),
		Status:    StatusStarted,
		StartedAt: time.Now(),
	}
	if err := r.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *Repo) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := r.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	return &job, nil
}

// Complete marks the job finished with a result payload.
func (r *Repo) Complete(ctx context.Context, jobID string, result any) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	job.Status = StatusComplete
	job.Result = raw
	job.UpdatedAt = time.Now()
	return r.save(ctx, job)
}

// Fail marks the job failed with the terminal error.
func (r *Repo) Fail(ctx context.Context, jobID, errMsg string) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = StatusFailed
	job.Error = errMsg
	job.UpdatedAt = time.Now()
	return r.save(ctx, job)
}

// Enqueue pushes a deferred export for the worker.
func (r *Repo) Enqueue(ctx context.Context, q QueuedExport) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal queued export: %w", err)
	}
	return r.client.LPush(ctx, queueKey, data).Err()
}

// Dequeue blocks up to timeout for the next pending export. A nil result
// with nil error means the timeout elapsed.
func (r *Repo) Dequeue(ctx context.Context, timeout time.Duration) (*QueuedExport, error) {
	vals, err := r.client.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop export queue: %w", err)
	}

	var q QueuedExport
	if err := json.Unmarshal([]byte(vals[1]), &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queued export: %w", err)
	}
	return &q, nil
}

func (r *Repo) save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}
	if err := r.client.Set(ctx, jobKeyPrefix+job.ID, data, jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Copyright (c) 2026 CandidHQ. All rights reserved.

package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/candidhq/intake/internal/platform/apperr"
)

// # Job Status Model

// JobStatus enumerates the lifecycle of one extraction job.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is the transient status record for one document extraction.
//
// Records live in Redis with a TTL matching the session lifetime — once
// the session is gone there is nothing left to poll for.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message"`
	Confidence int       `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// JobTTL is how long a job status record remains queryable.
const JobTTL = 24 * time.Hour

// JobStore persists transient extraction job records.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Find(ctx context.Context, jobID string) (*Job, error)
}

// # Job Store (Redis)

// RedisJobStore implements [JobStore] using Redis with TTL'd keys.
type RedisJobStore struct {
	client *redis.Client
}

// NewRedisJobStore creates a new Redis-backed [JobStore].
func NewRedisJobStore(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{client: client}
}

func jobKey(jobID string) string {
	return fmt.Sprintf("extraction:job:%s", jobID)
}

/*
Save stores a job record under its ID with [JobTTL].

Parameters:
  - ctx: context.Context
  - job: *Job

Returns:
  - error: Serialization or storage failures
*/
func (store *RedisJobStore) Save(ctx context.Context, job *Job) error {
	key := jobKey(job.ID)

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redis_job_store_marshal_failed: %w", err)
	}

	if err := store.client.Set(ctx, key, payload, JobTTL).Err(); err != nil {
		return fmt.Errorf("redis_job_store_save_failed: %w", err)
	}

	return nil
}

/*
Find retrieves a job record by ID.

Description: Returns apperr.NotFound if the record is absent or its TTL lapsed.

Parameters:
  - ctx: context.Context
  - jobID: string

Returns:
  - *Job: The status record
  - error: apperr.NotFound or connectivity errors
*/
func (store *RedisJobStore) Find(ctx context.Context, jobID string) (*Job, error) {
	key := jobKey(jobID)

	payload, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Extraction job")
		}
		return nil, fmt.Errorf("redis_job_store_find_failed: %w", err)
	}

	job := &Job{}
	if err := json.Unmarshal(payload, job); err != nil {
		return nil, fmt.Errorf("redis_job_store_unmarshal_failed: %w", err)
	}

	return job, nil
}

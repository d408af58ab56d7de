package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired export ids.
var ErrNotFound = errors.New("export: artifact not found")

// Status tracks an asynchronous export.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Artifact is an export job and, once done, its output.
type Artifact struct {
	ID        string    `json:"id"`
	Format    Format    `json:"format"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Data      []byte    `json:"-"`
}

const (
	fieldMeta = "meta"
	fieldData = "data"
)

// Store keeps artifacts in Redis hashes that expire after ttl.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates an artifact store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func artifactKey(id string) string { return "chart:export:" + id }

// Create registers a pending artifact with a fresh id.
func (s *Store) Create(ctx context.Context, f Format) (Artifact, error) {
	now := s.now().UTC()
	a := Artifact{ID: uuid.NewString(), Format: f, Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	if err := s.save(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Complete stores the artifact output.
func (s *Store) Complete(ctx context.Context, id string, data []byte) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	a.Status = StatusDone
	a.Error = ""
	a.Data = data
	a.UpdatedAt = s.now().UTC()
	return s.save(ctx, a)
}

// Fail records a terminal failure.
func (s *Store) Fail(ctx context.Context, id string, cause error) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	a.Status = StatusFailed
	if cause != nil {
		a.Error = cause.Error()
	}
	a.UpdatedAt = s.now().UTC()
	return s.save(ctx, a)
}

// Get loads an artifact with its data.
func (s *Store) Get(ctx context.Context, id string) (Artifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Artifact{}, ErrNotFound
	}
	fields, err := s.client.HGetAll(ctx, artifactKey(id)).Result()
	if err != nil {
		return Artifact{}, fmt.Errorf("export: load artifact: %w", err)
	}
	meta, ok := fields[fieldMeta]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	var a Artifact
	if err := json.Unmarshal([]byte(meta), &a); err != nil {
		return Artifact{}, fmt.Errorf("export: decode artifact: %w", err)
	}
	if data, ok := fields[fieldData]; ok {
		a.Data = []byte(data)
	}
	return a, nil
}

func (s *Store) save(ctx context.Context, a Artifact) error {
	meta, err := json.Marshal(a)
	if err != nil {
		return err
	}
	key := artifactKey(a.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldMeta, meta)
		if a.Data != nil {
			pipe.HSet(ctx, key, fieldData, a.Data)
		}
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("export: save artifact: %w", err)
	}
	return nil
}

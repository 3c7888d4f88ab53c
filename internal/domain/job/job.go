package job

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}

var ErrJobNotFound = errors.New("job not found")

type Job struct {
	ID          string          `bson:"_id" json:"id"`
	Type        string          `bson:"type" json:"type"`
	Payload     json.RawMessage `bson:"payload" json:"payload"`
	Status      Status          `bson:"status" json:"status"`
	Attempts    int             `bson:"attempts" json:"attempts"`
	MaxAttempts int             `bson:"maxAttempts" json:"maxAttempts"`
	RunAt       time.Time       `bson:"runAt" json:"runAt"`
	LockedAt    *time.Time      `bson:"lockedAt,omitempty" json:"lockedAt,omitempty"`
	LockedBy    *string         `bson:"lockedBy,omitempty" json:"lockedBy,omitempty"`
	LastError   *string         `bson:"lastError,omitempty" json:"lastError,omitempty"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type CreateRequest struct {
	Type        string
	Payload     json.RawMessage
	RunAt       time.Time
	MaxAttempts int
}

func New(req CreateRequest) Job {
	now := time.Now().UTC()

	maxA := req.MaxAttempts

	if maxA <= 0 {
		maxA = 5
	}

	runAt := req.RunAt

	if runAt.IsZero() {
		runAt = now
	}

	return Job{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Payload:     req.Payload,
		Status:      StatusPending,
		Attempts:    0,
		MaxAttempts: maxA,
		RunAt:       runAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

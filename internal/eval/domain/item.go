package domain

import (
	"time"
)

// ItemStatus is the lifecycle state of a single evaluation item.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemRunning   ItemStatus = "running"
	ItemCompleted ItemStatus = "completed"
	ItemError     ItemStatus = "error"
)

// Item is one unit of work within a job: an opaque input, an optional
// expected output, and optional metadata consumed by tasks that bind by
// field name.
type Item struct {
	Input    interface{}            `yaml:"input" json:"input"`
	Expected interface{}            `yaml:"expected,omitempty" json:"expected,omitempty"`
	Metadata map[string]interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Score is the outcome of one metric for one item. A failed metric
// computation degrades only its own score; Err is set and Value is zero.
type Score struct {
	Value float64 `json:"value"`
	Err   string  `json:"error,omitempty"`
}

// ItemState records the progress of one item through its job.
// It is owned exclusively by the runner that created it; exactly one
// executor mutates it at a time, so no internal locking is needed.
//
// Status transitions are monotonic: pending -> running -> completed|error.
type ItemState struct {
	Index      int              `json:"index"`
	Status     ItemStatus       `json:"status"`
	StartedAt  time.Time        `json:"started_at,omitempty"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
	Output     interface{}      `json:"output,omitempty"`
	Scores     map[string]Score `json:"scores,omitempty"`
	Error      string           `json:"error,omitempty"`
	RunTime    time.Duration    `json:"run_time"`
}

func NewItemState(index int) *ItemState {
	return &ItemState{
		Index:  index,
		Status: ItemPending,
		Scores: map[string]Score{},
	}
}

// MarkRunning moves the item from pending to running. It is a no-op if the
// item already left the pending state.
func (s *ItemState) MarkRunning(now time.Time) {
	if s.Status != ItemPending {
		return
	}
	s.Status = ItemRunning
	s.StartedAt = now
}

// MarkCompleted moves the item to its terminal completed state.
func (s *ItemState) MarkCompleted(now time.Time) {
	if s.Terminal() {
		return
	}
	s.Status = ItemCompleted
	s.finish(now)
}

// MarkError moves the item to its terminal error state, recording why.
func (s *ItemState) MarkError(now time.Time, err error) {
	if s.Terminal() {
		return
	}
	s.Status = ItemError
	s.Error = err.Error()
	s.finish(now)
}

func (s *ItemState) finish(now time.Time) {
	s.FinishedAt = now
	if !s.StartedAt.IsZero() {
		s.RunTime += now.Sub(s.StartedAt)
	}
}

func (s *ItemState) Terminal() bool {
	return s.Status == ItemCompleted || s.Status == ItemError
}

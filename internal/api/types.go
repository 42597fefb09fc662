package api

import (
	stdcontext "context"
	"errors"
	"time"

	"github.com/Paintersrp/cryo/internal/freezer"
)

var (
	ErrUnknownGroup = errors.New("unknown group")
	ErrNoActiveTree = errors.New("no active hierarchy")
)

// GroupReport describes the freeze state of a single group.
type GroupReport struct {
	Path              string `json:"path"`
	RequestedFreeze   bool   `json:"requested_freeze"`
	EffectiveFreeze   int    `json:"effective_freeze"`
	Frozen            bool   `json:"frozen"`
	ParkedTasks       int    `json:"parked_tasks"`
	TotalTasks        int    `json:"total_tasks"`
	FrozenDescendants int    `json:"frozen_descendants"`
	TotalDescendants  int    `json:"total_descendants"`
}

// EventRecord is one notification retained in the status history.
type EventRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Node      string            `json:"node"`
	Type      freezer.EventType `json:"type"`
	Frozen    bool              `json:"frozen"`
	Task      string            `json:"task,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// StatusReport aggregates tree-wide state for API consumers.
type StatusReport struct {
	Hierarchy   string        `json:"hierarchy"`
	GeneratedAt time.Time     `json:"generated_at"`
	Groups      []GroupReport `json:"groups"`
	Events      []EventRecord `json:"events"`
}

// FreezeResult captures the outcome of a freeze or thaw request.
type FreezeResult struct {
	Group       string    `json:"group"`
	Freeze      bool      `json:"freeze"`
	Frozen      bool      `json:"frozen"`
	CompletedAt time.Time `json:"completed_at"`
}

// Controller exposes coordinator operations required by control servers.
type Controller interface {
	Status(stdcontext.Context) (*StatusReport, error)
	Freeze(stdcontext.Context, string) (*FreezeResult, error)
	Thaw(stdcontext.Context, string) (*FreezeResult, error)
}

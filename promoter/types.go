package promoter

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-rtkit/cache"
	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/events"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

const (
	limitsKey    = "limits"
	eventsBuffer = 64
)

// Elevator is the part of *rtkit.Client the promoter drives.
type Elevator interface {
	PolicyLimits(ctx context.Context) (rtkit.PolicyLimits, error)
	Apply(ctx context.Context, pid, tid uint64, req rtkit.Request) error
}

// Promoter applies a configured list of promotions through an Elevator.
type Promoter struct {
	client Elevator

	// mu serialises Apply and configuration updates.
	mu         sync.Mutex
	promotions []config.Promotion
	limits     *cache.Cache[rtkit.PolicyLimits]

	events chan events.Event
	filter events.Filter
}

// Result is the outcome of one promotion. It is the Data of the
// promotion events.
type Result struct {
	Name    string `json:"name"`
	PID     uint64 `json:"pid"`
	TID     uint64 `json:"tid"`
	Request string `json:"request"`
	Kind    string `json:"error_kind,omitempty"`
	Error   string `json:"error,omitempty"`
	err     error
}

// Err returns the error the promotion failed with, nil on success.
func (r Result) Err() error {
	return r.err
}

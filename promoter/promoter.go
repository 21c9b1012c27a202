package promoter

import (
	"context"
	"errors"
	"fmt"

	"github.com/b0bbywan/go-rtkit/cache"
	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/events"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

// New returns a Promoter for cfg. A nil cfg has no promotions.
func New(client Elevator, cfg *config.PromoterConfig) *Promoter {
	p := &Promoter{
		client: client,
		events: make(chan events.Event, eventsBuffer),
	}
	p.configure(cfg)
	return p
}

// Events returns the channel promotion and reload events are published on.
// Events are dropped when nobody reads fast enough.
func (p *Promoter) Events() <-chan events.Event {
	return p.events
}

// SetFilter restricts the events published to those f passes.
func (p *Promoter) SetFilter(f events.Filter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
}

// Update replaces the promotion list and drops the cached policy limits.
func (p *Promoter) Update(cfg *config.PromoterConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configure(cfg)
}

func (p *Promoter) configure(cfg *config.PromoterConfig) {
	if cfg == nil {
		cfg = &config.PromoterConfig{}
	}
	p.promotions = append([]config.Promotion(nil), cfg.Promotions...)
	if p.limits != nil && p.limits.TTL() == cfg.LimitsTTL {
		p.limits.Clear()
		return
	}
	p.limits = cache.New[rtkit.PolicyLimits](cfg.LimitsTTL)
}

// Apply performs every promotion in order. A failed promotion does not stop
// the following ones; the failures are returned joined.
func (p *Promoter) Apply(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.promotions) == 0 {
		logger.Debug("[promoter] no promotion configured")
		return nil
	}

	var errs []error
	for _, promotion := range p.promotions {
		res := p.apply(ctx, promotion)
		if res.err != nil {
			logger.Warn("[promoter] %s: %v", promotion.Name, res.err)
			errs = append(errs, fmt.Errorf("promotion %q: %w", promotion.Name, res.err))
			p.publish(events.TypePromotionFailed, res)
			continue
		}
		logger.Info("[promoter] %s: thread %d/%d set to %s", promotion.Name, promotion.PID, promotion.TID, res.Request)
		p.publish(events.TypePromotionApplied, res)
	}
	return errors.Join(errs...)
}

func (p *Promoter) apply(ctx context.Context, promotion config.Promotion) Result {
	req := request(promotion)
	res := Result{
		Name:    promotion.Name,
		PID:     promotion.PID,
		TID:     promotion.TID,
		Request: req.String(),
	}

	err := promotion.Validate()
	if err == nil && req.Kind == rtkit.HighPriority {
		err = p.checkNiceLevel(ctx, req.NiceLevel)
	}
	if err == nil {
		err = p.client.Apply(ctx, promotion.PID, promotion.TID, req)
		if kind, _ := rtkit.KindOf(err); kind == rtkit.PriorityOutOfRange && req.Kind == rtkit.HighPriority {
			// the daemon's floor moved since the limits were cached
			p.limits.Delete(limitsKey)
		}
	}
	if err != nil {
		res.err = err
		res.Error = err.Error()
		if kind, ok := rtkit.KindOf(err); ok {
			res.Kind = kind.String()
		}
	}
	return res
}

// checkNiceLevel rejects nice levels below the daemon's floor using the
// cached limits. When the limits cannot be read the request is left to the
// daemon.
func (p *Promoter) checkNiceLevel(ctx context.Context, nice int32) error {
	limits, err := p.limits.GetOrLoad(limitsKey, func() (rtkit.PolicyLimits, error) {
		return p.client.PolicyLimits(ctx)
	})
	if err != nil {
		logger.Debug("[promoter] policy limits unavailable, skipping local check: %v", err)
		return nil
	}
	if nice < limits.MinNiceLevel {
		return &rtkit.PriorityOutOfRangeError{
			Method: rtkit.METHOD_MAKE_THREAD_HIGH_PRIORITY,
			Reason: fmt.Sprintf("nice level %d below MinNiceLevel %d", nice, limits.MinNiceLevel),
		}
	}
	return nil
}

func (p *Promoter) publish(typ string, data any) {
	if !events.Send(p.events, p.filter, events.Event{Type: typ, Data: data}) {
		logger.Debug("[promoter] %s event not delivered", typ)
	}
}

func request(promotion config.Promotion) rtkit.Request {
	if promotion.Kind == config.KindHighPriority {
		return rtkit.HighPriorityRequest(promotion.Nice)
	}
	return rtkit.RealtimeRequest(promotion.Priority)
}

package promoter

import (
	"context"

	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/events"
	"github.com/b0bbywan/go-rtkit/logger"
)

// Watch applies the promotions once, then again every time the config file
// at path changes, until ctx is done.
func (p *Promoter) Watch(ctx context.Context, path string) error {
	if err := p.Apply(ctx); err != nil {
		logger.Error("[promoter] initial apply: %v", err)
	}

	err := config.Watch(ctx, path, func(cfg *config.Config) {
		p.Update(cfg.Promoter)
		p.mu.Lock()
		p.publish(events.TypeConfigReloaded, cfg.File)
		p.mu.Unlock()

		if err := p.Apply(ctx); err != nil {
			logger.Error("[promoter] apply after reload: %v", err)
		}
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("[promoter] stopped watching %s", path)
	return nil
}

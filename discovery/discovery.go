package discovery

import (
	"context"
	"errors"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/logger"
)

// registerFunc publishes a service and returns a handle to withdraw it.
type registerFunc func(instance, service, domain string, port int, txt []string) (shutdowner, error)

type shutdowner interface {
	Shutdown()
}

// Publisher advertises the HTTP API over mDNS.
type Publisher struct {
	Config   *config.ZeroConfig
	register registerFunc

	mu     sync.Mutex
	server shutdowner
	cancel context.CancelFunc
}

// New returns nil when discovery is disabled.
func New(cfg *config.ZeroConfig) *Publisher {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &Publisher{Config: cfg, register: register}
}

func register(instance, service, domain string, port int, txt []string) (shutdowner, error) {
	return zeroconf.Register(instance, service, domain, port, txt, nil)
}

// Start publishes the service until ctx is done or Shutdown is called.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server != nil {
		return errors.New("discovery: service already published")
	}
	if p.Config.Port <= 0 {
		return errors.New("discovery: no port to advertise")
	}

	server, err := p.register(
		p.Config.InstanceName,
		p.Config.ServiceType,
		p.Config.Domain,
		p.Config.Port,
		p.Config.TxtRecords,
	)
	if err != nil {
		return err
	}
	p.server = server
	logger.Info("[discovery] service '%s' published (type: %s, port: %d)",
		p.Config.InstanceName, p.Config.ServiceType, p.Config.Port)

	subCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go func() {
		<-subCtx.Done()
		p.Shutdown()
	}()
	return nil
}

// Shutdown withdraws the service. It is safe to call more than once.
func (p *Publisher) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server != nil {
		p.server.Shutdown()
		p.server = nil
		logger.Debug("[discovery] service '%s' withdrawn", p.Config.InstanceName)
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

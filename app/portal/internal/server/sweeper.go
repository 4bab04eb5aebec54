package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/robfig/cron/v3"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/cancel"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
	"github.com/iWorld-y/fact_radar/app/portal/internal/conf"
)

const (
	defaultSweepSpec   = "@every 10m"
	defaultSweepMaxAge = time.Hour
)

// Ensure Sweeper implements transport.Server
var _ transport.Server = (*Sweeper)(nil)

// Sweeper 定期清理内存中残留的取消标记，redis 后端依赖 TTL 无需清理
type Sweeper struct {
	cron   *cron.Cron
	reg    *cancel.MemoryRegistry
	spec   string
	maxAge time.Duration
	log    *log.Helper
}

// NewSweeper 创建取消标记清理任务
func NewSweeper(c *conf.FactRadar, rt *engine.Runtime, logger log.Logger) *Sweeper {
	s := &Sweeper{
		cron:   cron.New(),
		spec:   defaultSweepSpec,
		maxAge: defaultSweepMaxAge,
		log:    log.NewHelper(logger),
	}
	if reg, ok := rt.Registry.(*cancel.MemoryRegistry); ok {
		s.reg = reg
	}
	if c != nil && c.Sweep != nil {
		if c.Sweep.Spec != "" {
			s.spec = c.Sweep.Spec
		}
		if d, err := time.ParseDuration(c.Sweep.MaxAge); err == nil && d > 0 {
			s.maxAge = d
		}
	}
	return s
}

func (s *Sweeper) Start(ctx context.Context) error {
	if s.reg == nil {
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}
	s.log.Infof("cancel sweep scheduled: %s, max age %s", s.spec, s.maxAge)
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Sweeper) sweep() {
	if n := s.reg.Sweep(s.maxAge); n > 0 {
		s.log.Infof("swept %d stale cancel marks", n)
	}
}

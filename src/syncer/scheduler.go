package syncer

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler periodically drives SyncAllActiveAssets.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(svc *Service, spec string) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		if err := svc.SyncAllActiveAssets(context.Background()); err != nil {
			log.Errorf("Scheduler: scheduled sync failed: %v", err)
		}
	})

	if err != nil {
		return nil, fmt.Errorf("NewScheduler: invalid cron spec %q: %w", spec, err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("sync scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info("sync scheduler stopped")
}

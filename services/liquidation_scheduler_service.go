package services

import (
	"prestadiario/config"
	"prestadiario/utils"

	"github.com/robfig/cron/v3"
)

// LiquidationSchedulerService drives the automatic liquidation runs
type LiquidationSchedulerService struct {
	cron               *cron.Cron
	liquidationService *LiquidationService
	cfg                *config.Config
}

// NewLiquidationSchedulerService creates a new LiquidationSchedulerService
func NewLiquidationSchedulerService(liquidationService *LiquidationService, cfg *config.Config) *LiquidationSchedulerService {
	return &LiquidationSchedulerService{
		cron:               cron.New(),
		liquidationService: liquidationService,
		cfg:                cfg,
	}
}

// Start registers the cron entries and launches the scheduler
func (s *LiquidationSchedulerService) Start() error {
	// Nightly closeout for every seller
	if _, err := s.cron.AddFunc(s.cfg.Liquidation.DailyCron, func() {
		utils.LogInfo("Starting daily liquidation run")
		s.liquidationService.RunDaily()
	}); err != nil {
		return err
	}

	// Weekly sweep that backfills any day the nightly run missed
	if _, err := s.cron.AddFunc(s.cfg.Liquidation.BackfillCron, func() {
		utils.LogInfo("Starting liquidation backfill sweep")
		s.liquidationService.BackfillAll()
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler; running jobs finish on their own
func (s *LiquidationSchedulerService) Stop() {
	s.cron.Stop()
}

package jobs

import (
	"context"
	"log"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/robfig/cron/v3"
)

// DefaultRefreshSchedule reloads the campaign list every 10 minutes
const DefaultRefreshSchedule = "*/10 * * * *"

// CampaignRefresher reloads the cached campaign list
type CampaignRefresher interface {
	RefreshCampaigns(ctx context.Context) ([]smartlead.Campaign, error)
}

// DefaultSessionCleanupSchedule drops expired in-memory sessions every hour
const DefaultSessionCleanupSchedule = "@hourly"

// SessionCleaner drops expired sessions and reports how many were removed
type SessionCleaner interface {
	CleanupExpired() int
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron      *cron.Cron
	refresher CampaignRefresher
	logger    *log.Logger
	timeout   time.Duration
}

// NewCronManager creates a new cron manager
func NewCronManager(refresher CampaignRefresher, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:      cron.New(),
		refresher: refresher,
		logger:    logger,
		timeout:   2 * time.Minute,
	}
}

// SetupJobs configures all scheduled jobs. An empty schedule uses the default.
func (cm *CronManager) SetupJobs(refreshSchedule string) error {
	cm.logger.Println("Setting up cron jobs...")

	if refreshSchedule == "" {
		refreshSchedule = DefaultRefreshSchedule
	}

	if _, err := cm.cron.AddFunc(refreshSchedule, cm.RefreshCampaigns); err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Printf("  - %s: Refresh campaign list cache", refreshSchedule)

	return nil
}

// AddSessionCleanup schedules cleaner. Only needed for stores without native expiry.
func (cm *CronManager) AddSessionCleanup(schedule string, cleaner SessionCleaner) error {
	if schedule == "" {
		schedule = DefaultSessionCleanupSchedule
	}

	_, err := cm.cron.AddFunc(schedule, func() {
		if removed := cleaner.CleanupExpired(); removed > 0 {
			cm.logger.Printf("🧹 Removed %d expired filter sessions", removed)
		}
	})
	if err != nil {
		return err
	}

	cm.logger.Printf("  - %s: Clean up expired filter sessions", schedule)
	return nil
}

// RefreshCampaigns warms the campaign cache so selection lists load quickly
func (cm *CronManager) RefreshCampaigns() {
	cm.logger.Println("🕐 Refreshing campaign cache...")

	ctx, cancel := context.WithTimeout(context.Background(), cm.timeout)
	defer cancel()

	campaigns, err := cm.refresher.RefreshCampaigns(ctx)
	if err != nil {
		cm.logger.Printf("❌ Failed to refresh campaigns: %v", err)
		return
	}

	cm.logger.Printf("✅ Campaign cache refreshed (%d campaigns)", len(campaigns))
}

// Entries returns the number of scheduled jobs
func (cm *CronManager) Entries() int {
	return len(cm.cron.Entries())
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler and waits for running jobs
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	<-cm.cron.Stop().Done()
}

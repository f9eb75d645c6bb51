package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthChecker monitors database connection health. database/sql re-dials
// broken connections on its own, so the checker only tracks state.
type HealthChecker struct {
	db            *sql.DB
	checkInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	mu            sync.RWMutex
	isHealthy     bool
	logger        *logrus.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB, checkInterval time.Duration, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		db:            db,
		checkInterval: checkInterval,
		stopChan:      make(chan struct{}),
		isHealthy:     true,
		logger:        logger,
	}
}

// Start begins monitoring the database connection
func (chc *HealthChecker) Start() {
	ticker := time.NewTicker(chc.checkInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-chc.stopChan:
				return
			case <-ticker.C:
				chc.checkConnection()
			}
		}
	}()
}

// Stop stops monitoring the database connection. Safe to call more than once.
func (chc *HealthChecker) Stop() {
	chc.stopOnce.Do(func() {
		close(chc.stopChan)
	})
}

// checkConnection performs a health check on the database connection
func (chc *HealthChecker) checkConnection() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := chc.db.PingContext(ctx)

	chc.mu.Lock()
	defer chc.mu.Unlock()

	if err != nil {
		if chc.isHealthy {
			chc.logger.WithError(err).Error("❌ Database connection health check failed")
		}
		chc.isHealthy = false
		return
	}

	if !chc.isHealthy {
		chc.logger.Info("✓ Database connection restored")
	}
	chc.isHealthy = true
}

// IsHealthy returns the current health status of the connection
func (chc *HealthChecker) IsHealthy() bool {
	chc.mu.RLock()
	defer chc.mu.RUnlock()
	return chc.isHealthy
}

// EnsureConnection verifies the connection before a query. An unhealthy
// state is re-probed once so a recovered database is picked up immediately.
func (chc *HealthChecker) EnsureConnection(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := chc.db.PingContext(pingCtx); err != nil {
		chc.mu.Lock()
		chc.isHealthy = false
		chc.mu.Unlock()
		return fmt.Errorf("database connection check failed: %w", err)
	}

	chc.mu.Lock()
	chc.isHealthy = true
	chc.mu.Unlock()
	return nil
}

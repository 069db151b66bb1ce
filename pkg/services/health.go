package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const healthCheckTimeout = 30 * time.Second

// ConnectionMonitor periodically re-verifies every stored provider
// connection so stale credentials surface as error-state connections
// before a run trips over them.
type ConnectionMonitor struct {
	connections *Connection
	schedule    string
	cron        *cron.Cron
	logger      *slog.Logger
}

// NewConnectionMonitor creates a monitor. Schedule is a cron expression;
// empty selects an hourly sweep.
func NewConnectionMonitor(connections *Connection, schedule string, logger *slog.Logger) *ConnectionMonitor {
	if schedule == "" {
		schedule = "@hourly"
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ConnectionMonitor{
		connections: connections,
		schedule:    schedule,
		cron:        cron.New(),
		logger:      logger.With("module", "connection_monitor"),
	}
}

func (m *ConnectionMonitor) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.sweep); err != nil {
		return err
	}

	m.cron.Start()
	m.logger.Info("Connection monitor started", "schedule", m.schedule)

	return nil
}

func (m *ConnectionMonitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("Connection monitor stopped")
}

// sweep tests every connection once. Failures are logged and reflected on
// the connection's status by Test; the sweep itself never aborts early.
func (m *ConnectionMonitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	conns, err := m.connections.persistence.Connections(ctx, "")
	if err != nil {
		m.logger.Error("Failed to list connections", "error", err)

		return
	}

	for _, conn := range conns {
		if _, err := m.connections.Test(ctx, conn.ID); err != nil {
			m.logger.Warn("Connection check failed",
				"connection_id", conn.ID, "provider", conn.Provider, "error", err)
		}
	}

	m.logger.Debug("Connection sweep finished", "count", len(conns))
}

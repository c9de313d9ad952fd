package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

// AgentStatsJobParams configure the daily agent counter rollover.
type AgentStatsJobParams struct {
	Logger    *logger.Logger
	Agents    agentStatsStore
	Orders    openAssignmentCounter
	WeekStart time.Weekday
	Location  *time.Location
}

type agentStatsStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.DeliveryAgent, error)
	UpdateFields(ctx context.Context, uid string, updates map[string]any) error
	ResetWeeklyDeliveries(ctx context.Context) (int64, error)
}

type openAssignmentCounter interface {
	OpenAssignmentsByAgent(ctx context.Context) (map[string]int, error)
}

// NewAgentStatsJob builds the job that realigns remaining_today with the
// agent's open assignments and clears weekly deliveries at the week start.
func NewAgentStatsJob(params AgentStatsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agent store required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order counter required")
	}
	location := params.Location
	if location == nil {
		location = time.UTC
	}
	return &agentStatsJob{
		logg:      params.Logger,
		agents:    params.Agents,
		orders:    params.Orders,
		weekStart: params.WeekStart,
		location:  location,
		now:       time.Now,
	}, nil
}

type agentStatsJob struct {
	logg      *logger.Logger
	agents    agentStatsStore
	orders    openAssignmentCounter
	weekStart time.Weekday
	location  *time.Location
	now       func() time.Time
}

func (j *agentStatsJob) Name() string { return "agent-stats-rollover" }

func (j *agentStatsJob) Run(ctx context.Context) error {
	open, err := j.orders.OpenAssignmentsByAgent(ctx)
	if err != nil {
		return fmt.Errorf("count open assignments: %w", err)
	}
	agents, err := j.agents.List(ctx, true)
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}

	var errs error
	updated := 0
	for _, agent := range agents {
		remaining := open[agent.UID]
		if agent.RemainingToday == remaining {
			continue
		}
		if err := j.agents.UpdateFields(ctx, agent.UID, map[string]any{"remaining_today": remaining}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("agent %s: %w", agent.UID, err))
			continue
		}
		updated++
	}

	var reset int64
	if j.now().In(j.location).Weekday() == j.weekStart {
		rows, err := j.agents.ResetWeeklyDeliveries(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reset weekly deliveries: %w", err))
		}
		reset = rows
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"agents":         len(agents),
		"agents_updated": updated,
		"weekly_reset":   reset,
	})
	j.logg.Info(logCtx, "agent stats rollover complete")
	return errs
}

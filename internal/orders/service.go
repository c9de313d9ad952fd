package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/metrics"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gasdrop-backend/pkg/pagination"
)

// MaxBulkAssign caps how many orders a single bulk request may carry.
const MaxBulkAssign = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderMetrics interface {
	IncTransition(status string)
	IncAssignment(outcome string)
}

// Service defines the order lifecycle and its read surfaces.
type Service interface {
	AssignAgent(ctx context.Context, actor *sessions.Session, orderID uuid.UUID, agentUID string) (*OrderDTO, error)
	BulkAssign(ctx context.Context, actor *sessions.Session, orderIDs []uuid.UUID, agentUID string) (*BulkAssignResult, error)
	AdvanceStatus(ctx context.Context, actor *sessions.Session, orderID uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, actor *sessions.Session, orderID uuid.UUID) (*OrderDTO, error)
	ListCustomerOrders(ctx context.Context, actor *sessions.Session, params pagination.Params) (*OrderList, error)
	ListAgentOrders(ctx context.Context, actor *sessions.Session, status *enums.OrderStatus, params pagination.Params) (*OrderList, error)
	ListOrders(ctx context.Context, actor *sessions.Session, status *enums.OrderStatus, params pagination.Params) (*OrderList, error)
	Dashboard(ctx context.Context, actor *sessions.Session) (*Dashboard, error)
}

type service struct {
	repo    Repository
	agents  AgentCounters
	tx      txRunner
	outbox  outbox.Emitter
	metrics orderMetrics
	now     func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, agents AgentCounters, tx txRunner, emitter outbox.Emitter, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	svc := &service{
		repo:   repo,
		agents: agents,
		tx:     tx,
		outbox: emitter,
		now:    time.Now,
	}
	if m != nil {
		svc.metrics = m
	}
	return svc, nil
}

func (s *service) AssignAgent(ctx context.Context, actor *sessions.Session, orderID uuid.UUID, agentUID string) (*OrderDTO, error) {
	order, err := s.assign(ctx, actor, orderID, agentUID)
	if err != nil {
		s.countAssignment(metrics.AssignmentRejected)
		return nil, err
	}
	s.countAssignment(metrics.AssignmentAssigned)
	dto := orderDTO(*order)
	return &dto, nil
}

func (s *service) assign(ctx context.Context, actor *sessions.Session, orderID uuid.UUID, agentUID string) (*models.Order, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionOrders); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	agentUID = strings.TrimSpace(agentUID)
	if agentUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		agents := s.agents.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapOrderError(err, "load order")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be reassigned").
				WithDetails(map[string]any{"status": order.Status})
		}

		agent, err := agents.FindByUID(ctx, agentUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery agent")
		}
		if !agent.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery agent is inactive")
		}

		previous := order.AssignedAgentID
		if previous != nil && *previous == agent.UID {
			result = order
			return nil
		}

		if err := repo.AssignAgent(ctx, order.ID, agent.UID); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order was delivered before assignment")
			}
			return mapOrderError(err, "assign agent")
		}
		if err := agents.AdjustCounters(ctx, agent.UID, CounterDelta{TotalAllotted: 1, RemainingToday: 1}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agent counters")
		}
		if previous != nil {
			if err := agents.AdjustCounters(ctx, *previous, CounterDelta{RemainingToday: -1}); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update previous agent counters")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderAssigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID.String(),
			Actor:         actorRef(actor),
			Data: payloads.OrderAssignedEvent{
				OrderID:         order.ID,
				AgentUID:        agent.UID,
				PreviousAgentID: previous,
				Status:          order.Status,
				AssignedBy:      actor.UID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order assigned")
		}

		uid := agent.UID
		order.AssignedAgentID = &uid
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkAssign assigns each order independently; a failure on one order is
// reported in its outcome and never rolls back the others.
func (s *service) BulkAssign(ctx context.Context, actor *sessions.Session, orderIDs []uuid.UUID, agentUID string) (*BulkAssignResult, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionOrders); err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order id required")
	}
	if len(orderIDs) > MaxBulkAssign {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d orders per request", MaxBulkAssign))
	}

	result := &BulkAssignResult{Outcomes: make([]AssignOutcome, 0, len(orderIDs))}
	seen := make(map[uuid.UUID]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		outcome := AssignOutcome{OrderID: id}
		order, err := s.AssignAgent(ctx, actor, id, agentUID)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil {
				typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign failed")
			}
			outcome.Error = &AssignOutcomeError{Code: string(typed.Code()), Message: typed.Message()}
			result.Failed++
		} else {
			outcome.Status = order.Status
			result.Assigned++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

func (s *service) AdvanceStatus(ctx context.Context, actor *sessions.Session, orderID uuid.UUID) (*OrderDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleDelivery); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapOrderError(err, "load order")
		}
		next, ok := order.Status.Next()
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already delivered").
				WithDetails(map[string]any{"status": order.Status})
		}
		if order.AssignedAgentID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no assigned agent")
		}
		if *order.AssignedAgentID != actor.UID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to you")
		}

		var deliveredAt *time.Time
		if next == enums.OrderStatusDelivered {
			at := s.now().UTC()
			deliveredAt = &at
		}
		if err := repo.TransitionStatus(ctx, order.ID, order.Status, next, deliveredAt); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if deliveredAt != nil {
			delta := CounterDelta{DeliveriesThisWeek: 1, RemainingToday: -1}
			if err := s.agents.WithTx(tx).AdjustCounters(ctx, actor.UID, delta); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agent counters")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID.String(),
			Actor:         actorRef(actor),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				From:        order.Status,
				To:          next,
				AgentUID:    actor.UID,
				DeliveredAt: deliveredAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}

		order.Status = next
		order.DeliveredAt = deliveredAt
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncTransition(string(result.Status))
	}
	dto := orderDTO(*result)
	return &dto, nil
}

func (s *service) GetOrder(ctx context.Context, actor *sessions.Session, orderID uuid.UUID) (*OrderDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderError(err, "load order")
	}

	switch actor.Role {
	case enums.RoleCustomer:
		if order.CustomerID != actor.UID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	case enums.RoleDelivery:
		if order.AssignedAgentID == nil || *order.AssignedAgentID != actor.UID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	case enums.RoleAdmin, enums.RoleSubAdmin:
		if err := sessions.RequirePermission(actor, enums.PermissionOrders); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}
	dto := orderDTO(*order)
	return &dto, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, actor *sessions.Session, params pagination.Params) (*OrderList, error) {
	if err := sessions.RequireRole(actor, enums.RoleCustomer); err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{CustomerID: actor.UID}, params)
}

func (s *service) ListAgentOrders(ctx context.Context, actor *sessions.Session, status *enums.OrderStatus, params pagination.Params) (*OrderList, error) {
	if err := sessions.RequireRole(actor, enums.RoleDelivery); err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{AgentUID: actor.UID, Status: status}, params)
}

func (s *service) ListOrders(ctx context.Context, actor *sessions.Session, status *enums.OrderStatus, params pagination.Params) (*OrderList, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionOrders); err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{Status: status}, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, orderDTO(row))
	}
	page := pagination.Trim(dtos, params.Limit, orderCursor)
	return &page, nil
}

func (s *service) Dashboard(ctx context.Context, actor *sessions.Session) (*Dashboard, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionDashboard); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	revenue, err := s.repo.DeliveredRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &Dashboard{TotalOrders: total, CountsByStatus: counts, DeliveredRevenue: revenue}, nil
}

func (s *service) countAssignment(outcome string) {
	if s.metrics != nil {
		s.metrics.IncAssignment(outcome)
	}
}

func actorRef(actor *sessions.Session) *outbox.ActorRef {
	if actor == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UID, Role: string(actor.Role)}
}

func mapOrderError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

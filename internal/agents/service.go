package agents

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/gasdrop-backend/pkg/db/types"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gasdrop-backend/pkg/security"
)

const (
	msgEmailRegistered = "Email is already registered"
	msgWeakPassword    = "Password should be at least 6 characters"
	msgInvalidEmail    = "Invalid email address"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages delivery agents.
type Service interface {
	Provision(ctx context.Context, actor *sessions.Session, input ProvisionInput) (*AgentDTO, error)
	List(ctx context.Context, actor *sessions.Session, activeOnly bool) ([]AgentDTO, error)
	Get(ctx context.Context, actor *sessions.Session, uid string) (*AgentDTO, error)
	Update(ctx context.Context, actor *sessions.Session, uid string, input UpdateInput) (*AgentDTO, error)
	SetActive(ctx context.Context, actor *sessions.Session, uid string, active bool) (*AgentDTO, error)
	UpdateStats(ctx context.Context, actor *sessions.Session, uid string, input StatsInput) (*AgentDTO, error)
	Profile(ctx context.Context, actor *sessions.Session) (*AgentDTO, error)
}

type service struct {
	repo        *Repository
	users       *users.Repository
	tx          txRunner
	outbox      outbox.Emitter
	passwordCfg config.PasswordConfig
}

// NewService builds the delivery agent service.
func NewService(repo *Repository, userRepo *users.Repository, tx txRunner, emitter outbox.Emitter, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("agent repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, users: userRepo, tx: tx, outbox: emitter, passwordCfg: passwordCfg}, nil
}

// Provision creates the user account and the agent record in one
// transaction. New agents start active with zeroed counters.
func (s *service) Provision(ctx context.Context, actor *sessions.Session, input ProvisionInput) (*AgentDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionDelivery); err != nil {
		return nil, err
	}
	email := identity.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, provisionError(identity.KindInvalidEmail, msgInvalidEmail, nil)
	}
	if err := security.CheckStrength(input.Password, s.passwordCfg); err != nil {
		return nil, provisionError(identity.KindWeakPassword, msgWeakPassword, err)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	phone := strings.TrimSpace(input.Phone)
	uid := uuid.NewString()
	agent := &models.DeliveryAgent{
		UID:      uid,
		Name:     name,
		Email:    email,
		Phone:    phone,
		IsActive: true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user := &models.User{
			UID:          uid,
			Email:        email,
			DisplayName:  name,
			Role:         enums.RoleDelivery,
			Permissions:  dbtypes.PermissionArray{},
			PasswordHash: &hash,
		}
		if phone != "" {
			user.PhoneNumber = &phone
		}
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return provisionError(identity.KindEmailInUse, msgEmailRegistered, err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		if err := s.repo.WithTx(tx).Create(ctx, agent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery agent")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAgentProvisioned,
			AggregateType: enums.AggregateDeliveryAgent,
			AggregateID:   uid,
			Actor:         &outbox.ActorRef{UserID: actor.UID, Role: string(actor.Role)},
			Data:          payloads.AgentProvisionedEvent{AgentUID: uid, Email: email, Name: name},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision agent")
	}
	return toDTO(agent), nil
}

func (s *service) List(ctx context.Context, actor *sessions.Session, activeOnly bool) ([]AgentDTO, error) {
	if err := s.requireAssigner(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agents")
	}
	out := make([]AgentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor *sessions.Session, uid string) (*AgentDTO, error) {
	if err := s.requireAssigner(actor); err != nil {
		return nil, err
	}
	agent, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	return toDTO(agent), nil
}

func (s *service) Update(ctx context.Context, actor *sessions.Session, uid string, input UpdateInput) (*AgentDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionDelivery); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if err := s.repo.UpdateFields(ctx, strings.TrimSpace(uid), updates); err != nil {
		return nil, mapAgentError(err, "update agent")
	}
	return s.Get(ctx, actor, uid)
}

// SetActive toggles an agent. Deactivation is the only removal; the record
// and its history are kept.
func (s *service) SetActive(ctx context.Context, actor *sessions.Session, uid string, active bool) (*AgentDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionDelivery); err != nil {
		return nil, err
	}
	var result *models.DeliveryAgent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		agent, err := repo.FindByUID(ctx, strings.TrimSpace(uid))
		if err != nil {
			return mapAgentError(err, "load agent")
		}
		result = agent
		if agent.IsActive == active {
			return nil
		}
		if err := repo.UpdateFields(ctx, agent.UID, map[string]any{"is_active": active}); err != nil {
			return mapAgentError(err, "update agent")
		}
		agent.IsActive = active
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAgentStatusChanged,
			AggregateType: enums.AggregateDeliveryAgent,
			AggregateID:   agent.UID,
			Actor:         &outbox.ActorRef{UserID: actor.UID, Role: string(actor.Role)},
			Data:          payloads.AgentStatusChangedEvent{AgentUID: agent.UID, IsActive: active},
		})
	})
	if err != nil {
		return nil, mapAgentError(err, "set agent status")
	}
	return toDTO(result), nil
}

func (s *service) UpdateStats(ctx context.Context, actor *sessions.Session, uid string, input StatsInput) (*AgentDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionDelivery); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	for column, value := range map[string]*int{
		"deliveries_this_week": input.DeliveriesThisWeek,
		"remaining_today":      input.RemainingToday,
		"total_allotted":       input.TotalAllotted,
	} {
		if value == nil {
			continue
		}
		if *value < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be negative")
		}
		updates[column] = *value
	}
	if err := s.repo.UpdateFields(ctx, strings.TrimSpace(uid), updates); err != nil {
		return nil, mapAgentError(err, "update agent stats")
	}
	return s.Get(ctx, actor, uid)
}

func (s *service) Profile(ctx context.Context, actor *sessions.Session) (*AgentDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleDelivery); err != nil {
		return nil, err
	}
	agent, err := s.load(ctx, actor.UID)
	if err != nil {
		return nil, err
	}
	return toDTO(agent), nil
}

// requireAssigner admits anyone who may pick an agent for an order.
func (s *service) requireAssigner(actor *sessions.Session) error {
	if sessions.HasPermission(actor, enums.PermissionOrders) {
		return nil
	}
	return sessions.RequirePermission(actor, enums.PermissionDelivery)
}

func (s *service) load(ctx context.Context, uid string) (*models.DeliveryAgent, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	agent, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, mapAgentError(err, "load agent")
	}
	return agent, nil
}

func provisionError(kind identity.Kind, message string, cause error) error {
	code := pkgerrors.CodeValidation
	if kind == identity.KindEmailInUse {
		code = pkgerrors.CodeConflict
	}
	var typed *pkgerrors.Error
	if cause != nil {
		typed = pkgerrors.Wrap(code, cause, message)
	} else {
		typed = pkgerrors.New(code, message)
	}
	return typed.WithDetails(map[string]any{"kind": string(kind)})
}

func mapAgentError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

package agents

import (
	"time"

	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
)

// AgentDTO is the delivery agent payload for admin and self views.
type AgentDTO struct {
	UID                string    `json:"uid"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	IsActive           bool      `json:"is_active"`
	DeliveriesThisWeek int       `json:"deliveries_this_week"`
	RemainingToday     int       `json:"remaining_today"`
	TotalAllotted      int       `json:"total_allotted"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProvisionInput creates a delivery account.
type ProvisionInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// UpdateInput patches an agent's contact fields.
type UpdateInput struct {
	Name  *string
	Phone *string
}

// StatsInput overrides agent counters. Nil fields are left alone.
type StatsInput struct {
	DeliveriesThisWeek *int
	RemainingToday     *int
	TotalAllotted      *int
}

func toDTO(a *models.DeliveryAgent) *AgentDTO {
	return &AgentDTO{
		UID:                a.UID,
		Name:               a.Name,
		Email:              a.Email,
		Phone:              a.Phone,
		IsActive:           a.IsActive,
		DeliveriesThisWeek: a.DeliveriesThisWeek,
		RemainingToday:     a.RemainingToday,
		TotalAllotted:      a.TotalAllotted,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

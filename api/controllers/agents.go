package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/gasdrop-backend/api/responses"
	"github.com/angelmondragon/gasdrop-backend/api/validators"
	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

type provisionAgentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"required,phone"`
}

// AdminProvisionAgent creates a delivery account with a local password.
func AdminProvisionAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req provisionAgentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Provision(r.Context(), sess, agents.ProvisionInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     validators.SanitizeString(req.Name, 120),
			Phone:    strings.TrimSpace(req.Phone),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, agent)
	}
}

// AdminListAgents lists delivery agents; ?active=true limits to active ones.
func AdminListAgents(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly := false
		if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
			activeOnly, err = strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid active"))
				return
			}
		}
		list, err := svc.List(r.Context(), sess, activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminGetAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := stringParam(r, "agentUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		agent, err := svc.Get(r.Context(), sess, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

type updateAgentRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

func AdminUpdateAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := stringParam(r, "agentUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateAgentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Update(r.Context(), sess, uid, agents.UpdateInput{Name: req.Name, Phone: req.Phone})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

type agentActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminSetAgentActive activates or deactivates an agent. Deactivation ends
// the agent's ability to sign in and to receive assignments.
func AdminSetAgentActive(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := stringParam(r, "agentUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req agentActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.SetActive(r.Context(), sess, uid, *req.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

type agentStatsRequest struct {
	DeliveriesThisWeek *int `json:"deliveries_this_week,omitempty" validate:"omitempty,min=0"`
	RemainingToday     *int `json:"remaining_today,omitempty" validate:"omitempty,min=0"`
	TotalAllotted      *int `json:"total_allotted,omitempty" validate:"omitempty,min=0"`
}

func AdminUpdateAgentStats(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := stringParam(r, "agentUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req agentStatsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.UpdateStats(r.Context(), sess, uid, agents.StatsInput{
			DeliveriesThisWeek: req.DeliveriesThisWeek,
			RemainingToday:     req.RemainingToday,
			TotalAllotted:      req.TotalAllotted,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

// AgentProfile returns the calling agent's own record and counters.
func AgentProfile(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		agent, err := svc.Profile(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gasdrop-backend/api/responses"
	"github.com/angelmondragon/gasdrop-backend/api/validators"
	"github.com/angelmondragon/gasdrop-backend/internal/checkout"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	"github.com/angelmondragon/gasdrop-backend/pkg/types"
)

type checkoutRequest struct {
	Address      types.DeliveryAddress `json:"address"`
	PaymentMode  string                `json:"payment_mode" validate:"required,payment_mode"`
	PromoCode    string                `json:"promo_code" validate:"max=40"`
	DeliverySlot *string               `json:"delivery_slot,omitempty" validate:"omitempty,max=60"`
}

// Checkout converts the caller's cart into an order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := enums.ParsePaymentMode(req.PaymentMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_mode"))
			return
		}

		order, err := svc.Execute(r.Context(), sess, checkout.CheckoutInput{
			Address:      req.Address,
			PaymentMode:  mode,
			PromoCode:    strings.TrimSpace(req.PromoCode),
			DeliverySlot: req.DeliverySlot,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

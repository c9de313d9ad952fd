package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/cart"
	"github.com/angelmondragon/gasdrop-backend/internal/orders"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gasdrop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type createdCounter interface {
	IncCreated(paymentMode string)
}

// Service turns the customer's cart into an order.
type Service interface {
	Execute(ctx context.Context, actor *sessions.Session, input CheckoutInput) (*orders.OrderDTO, error)
}

// CheckoutInput captures the delivery and payment choices made at checkout.
type CheckoutInput struct {
	Address      types.DeliveryAddress
	PaymentMode  enums.PaymentMode
	PromoCode    string
	DeliverySlot *string
}

type service struct {
	tx         txRunner
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	products   *product.Repository
	pricer     *cart.Pricer
	outbox     outbox.Emitter
	metrics    createdCounter
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	products *product.Repository,
	pricer *cart.Pricer,
	publisher outbox.Emitter,
	metrics createdCounter,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		products:   products,
		pricer:     pricer,
		outbox:     publisher,
		metrics:    metrics,
	}, nil
}

// Execute snapshots the cart into a Pending order and clears the cart in
// the same transaction.
func (s *service) Execute(ctx context.Context, actor *sessions.Session, input CheckoutInput) (*orders.OrderDTO, error) {
	if err := sessions.RequireRole(actor, enums.RoleCustomer); err != nil {
		return nil, err
	}
	if err := validateAddress(input.Address); err != nil {
		return nil, err
	}
	if !input.PaymentMode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode")
	}
	promo := strings.ToUpper(strings.TrimSpace(input.PromoCode))

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		products := s.products.WithTx(tx)

		lines, err := cartRepo.ListByUser(ctx, actor.UID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			if err := ensurePurchasable(ctx, products, line); err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				Price:     line.Price,
				Quantity:  line.Quantity,
			})
		}

		totals := s.pricer.ComputeTotals(cart.PricedLines(lines), promo)
		order := &models.Order{
			CustomerID:     actor.UID,
			CustomerName:   actor.DisplayName,
			CustomerEmail:  actor.Email,
			Subtotal:       totals.Subtotal,
			DeliveryCharge: totals.DeliveryCharge,
			TaxAmount:      totals.TaxAmount,
			Discount:       totals.Discount,
			Total:          totals.Total,
			Status:         enums.OrderStatusPending,
			Address:        input.Address,
			PaymentMode:    input.PaymentMode,
			DeliverySlot:   trimmedPtr(input.DeliverySlot),
			Items:          items,
		}
		if totals.Discount.IsPositive() {
			order.PromoCode = &promo
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if _, err := cartRepo.DeleteByUser(ctx, actor.UID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if err := s.emitOrderCreatedEvent(ctx, tx, actor, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCreated(string(created.PaymentMode))
	}
	dto := orders.ToDTO(*created)
	return &dto, nil
}

func (s *service) emitOrderCreatedEvent(ctx context.Context, tx *gorm.DB, actor *sessions.Session, order *models.Order) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID.String(),
		Actor:         &outbox.ActorRef{UserID: actor.UID, Role: string(actor.Role)},
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			Total:       order.Total.StringFixed(2),
			PaymentMode: order.PaymentMode,
			ItemCount:   len(order.Items),
			PromoCode:   order.PromoCode,
		},
		Version: 1,
	}
	return s.outbox.Emit(ctx, tx, event)
}

func ensurePurchasable(ctx context.Context, products *product.Repository, line models.CartLine) error {
	p, err := products.FindByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "a product in the cart is no longer available").
				WithDetails(map[string]any{"product_id": line.ProductID.String(), "name": line.Name})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !p.Purchasable(line.Quantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "a product in the cart is out of stock").
			WithDetails(map[string]any{"product_id": p.ID.String(), "name": p.Name})
	}
	return nil
}

func validateAddress(a types.DeliveryAddress) error {
	missing := make([]string, 0)
	for field, value := range map[string]string{
		"street":  a.Street,
		"city":    a.City,
		"state":   a.State,
		"pincode": a.Pincode,
		"phone":   a.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

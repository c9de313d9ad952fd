package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the customer's cart.
type Service interface {
	AddLine(ctx context.Context, actor *sessions.Session, productID uuid.UUID, quantity int) (*CartLineDTO, error)
	SetQuantity(ctx context.Context, actor *sessions.Session, lineID uuid.UUID, quantity int) (*CartLineDTO, error)
	RemoveLine(ctx context.Context, actor *sessions.Session, lineID uuid.UUID) error
	ListLines(ctx context.Context, actor *sessions.Session) ([]CartLineDTO, error)
	Clear(ctx context.Context, actor *sessions.Session) error
	Quote(ctx context.Context, actor *sessions.Session, promoCode string) (*QuoteDTO, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	pricer   *Pricer
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, pricer *Pricer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	return &service{repo: repo, tx: tx, products: products, pricer: pricer}, nil
}

func (s *service) AddLine(ctx context.Context, actor *sessions.Session, productID uuid.UUID, quantity int) (*CartLineDTO, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var saved *models.CartLine
	add := func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			existing, err := repo.FindByProduct(ctx, actor.UID, productID)
			switch {
			case err == nil:
				merged := existing.Quantity + quantity
				if !product.Purchasable(merged) {
					return unavailable(product)
				}
				if err := repo.UpdateQuantity(ctx, actor.UID, existing.ID, merged); err != nil {
					return err
				}
				existing.Quantity = merged
				saved = existing
				return nil
			case errors.Is(err, gorm.ErrRecordNotFound):
				if !product.Purchasable(quantity) {
					return unavailable(product)
				}
				line := &models.CartLine{
					UserID:    actor.UID,
					ProductID: product.ID,
					Name:      product.Name,
					Type:      product.Type,
					Price:     product.Price,
					Image:     product.Image,
					Quantity:  quantity,
				}
				if err := repo.Create(ctx, line); err != nil {
					return err
				}
				saved = line
				return nil
			default:
				return err
			}
		})
	}

	err = add()
	if db.IsUniqueViolation(err, "") {
		// a concurrent add created the line first; merge into it
		err = add()
	}
	if err != nil {
		return nil, mapCartError(err, "add cart line")
	}
	dto := lineDTO(*saved)
	return &dto, nil
}

func (s *service) SetQuantity(ctx context.Context, actor *sessions.Session, lineID uuid.UUID, quantity int) (*CartLineDTO, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	if quantity <= 0 {
		if err := s.repo.Delete(ctx, actor.UID, lineID); err != nil {
			return nil, mapCartError(err, "remove cart line")
		}
		return nil, nil
	}

	line, err := s.repo.FindByID(ctx, actor.UID, lineID)
	if err != nil {
		return nil, mapCartError(err, "load cart line")
	}
	product, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product != nil && quantity > line.Quantity && !product.Purchasable(quantity) {
		return nil, unavailable(product)
	}
	if err := s.repo.UpdateQuantity(ctx, actor.UID, lineID, quantity); err != nil {
		return nil, mapCartError(err, "update cart line")
	}
	line.Quantity = quantity
	dto := lineDTO(*line)
	return &dto, nil
}

func (s *service) RemoveLine(ctx context.Context, actor *sessions.Session, lineID uuid.UUID) error {
	if err := requireCustomer(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.UID, lineID); err != nil {
		return mapCartError(err, "remove cart line")
	}
	return nil
}

func (s *service) ListLines(ctx context.Context, actor *sessions.Session) ([]CartLineDTO, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	lines, err := s.repo.ListByUser(ctx, actor.UID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	return lineDTOs(lines), nil
}

func (s *service) Clear(ctx context.Context, actor *sessions.Session) error {
	if err := requireCustomer(actor); err != nil {
		return err
	}
	if _, err := s.repo.DeleteByUser(ctx, actor.UID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) Quote(ctx context.Context, actor *sessions.Session, promoCode string) (*QuoteDTO, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}
	lines, err := s.repo.ListByUser(ctx, actor.UID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	totals := s.pricer.ComputeTotals(PricedLines(lines), promoCode)
	return &QuoteDTO{
		Lines:        lineDTOs(lines),
		Totals:       totals,
		PromoApplied: totals.Discount.IsPositive(),
	}, nil
}

func requireCustomer(actor *sessions.Session) error {
	return sessions.RequireRole(actor, enums.RoleCustomer)
}

func unavailable(p *models.Product) error {
	if !p.InStock {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock").
			WithDetails(map[string]any{"product_id": p.ID.String()})
	}
	details := map[string]any{"product_id": p.ID.String()}
	if p.Quantity != nil {
		details["available"] = *p.Quantity
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock").
		WithDetails(details)
}

func mapCartError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, actor *sessions.Session, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor *sessions.Session, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, actor *sessions.Session, id uuid.UUID) error
	SetStock(ctx context.Context, actor *sessions.Session, id uuid.UUID, input StockInput) (*ProductDTO, error)
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

type service struct {
	repo productRepository
}

// NewService constructs a product service instance.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return toDTOs(rows), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(p), nil
}

func (s *service) CreateProduct(ctx context.Context, actor *sessions.Session, input CreateProductInput) (*ProductDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionProducts); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	if err := validatePricing(input.Price, input.OriginalPrice, input.DeliveryCharge); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	inStock := true
	if input.InStock != nil {
		inStock = *input.InStock
	}
	product := &models.Product{
		Name:           name,
		Type:           input.Type,
		Weight:         roundPtr(input.Weight),
		Price:          money.Round2(input.Price),
		OriginalPrice:  roundPtr(input.OriginalPrice),
		DeliveryCharge: roundPtr(input.DeliveryCharge),
		Description:    strings.TrimSpace(input.Description),
		Image:          strings.TrimSpace(input.Image),
		InStock:        inStock,
		Quantity:       input.Quantity,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return toDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, actor *sessions.Session, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionProducts); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		updates["name"] = name
		current.Name = name
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
		}
		updates["type"] = *input.Type
		current.Type = *input.Type
	}
	if input.Weight != nil {
		current.Weight = roundPtr(input.Weight)
		updates["weight"] = *current.Weight
	}
	if input.Price != nil {
		current.Price = money.Round2(*input.Price)
		updates["price"] = current.Price
	}
	if input.OriginalPrice != nil {
		current.OriginalPrice = roundPtr(input.OriginalPrice)
		updates["original_price"] = *current.OriginalPrice
	}
	if input.DeliveryCharge != nil {
		current.DeliveryCharge = roundPtr(input.DeliveryCharge)
		updates["delivery_charge"] = *current.DeliveryCharge
	}
	if input.Description != nil {
		current.Description = strings.TrimSpace(*input.Description)
		updates["description"] = current.Description
	}
	if input.Image != nil {
		current.Image = strings.TrimSpace(*input.Image)
		updates["image"] = current.Image
	}
	if input.InStock != nil {
		current.InStock = *input.InStock
		updates["in_stock"] = current.InStock
	}
	if input.Quantity != nil {
		if err := validateQuantity(input.Quantity); err != nil {
			return nil, err
		}
		current.Quantity = input.Quantity
		updates["quantity"] = *input.Quantity
	}

	if err := validatePricing(current.Price, current.OriginalPrice, current.DeliveryCharge); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, mapRepoError(err, "db: update product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, actor *sessions.Session, id uuid.UUID) error {
	if err := sessions.RequirePermission(actor, enums.PermissionProducts); err != nil {
		return err
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return mapRepoError(err, "db: delete product")
	}
	return nil
}

func (s *service) SetStock(ctx context.Context, actor *sessions.Session, id uuid.UUID, input StockInput) (*ProductDTO, error) {
	if err := sessions.RequirePermission(actor, enums.PermissionProducts); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	updates := map[string]any{"in_stock": input.InStock}
	if input.Quantity != nil {
		updates["quantity"] = *input.Quantity
	}
	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, mapRepoError(err, "db: update stock")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "db: load product")
	}
	return p, nil
}

func validatePricing(price decimal.Decimal, original, delivery *decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if original != nil && original.LessThan(price) {
		return pkgerrors.New(pkgerrors.CodeValidation, "original price cannot be below price")
	}
	if delivery != nil && delivery.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery charge cannot be negative")
	}
	return nil
}

func validateQuantity(qty *int) error {
	if qty != nil && *qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return nil
}

func roundPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	rounded := money.Round2(*d)
	return &rounded
}

func mapRepoError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

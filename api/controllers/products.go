package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gasdrop-backend/api/responses"
	"github.com/angelmondragon/gasdrop-backend/api/validators"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
)

// ProductList returns the public catalog. Supports type, q and in_stock filters.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		filter := product.ListFilter{Query: validators.SanitizeString(r.URL.Query().Get("q"), 100)}
		pt, ok, err := validators.ParseQueryEnum(r, "type", enums.ParseProductType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ok {
			filter.Type = &pt
		}
		if filter.InStockOnly, err = validators.ParseQueryBool(r, "in_stock"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type createProductRequest struct {
	Name           string           `json:"name" validate:"required,max=120"`
	Type           string           `json:"type" validate:"required,product_type"`
	Weight         *decimal.Decimal `json:"weight,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	OriginalPrice  *decimal.Decimal `json:"original_price,omitempty"`
	DeliveryCharge *decimal.Decimal `json:"delivery_charge,omitempty"`
	Description    string           `json:"description" validate:"max=2000"`
	Image          string           `json:"image" validate:"max=500"`
	InStock        *bool            `json:"in_stock,omitempty"`
	Quantity       *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
}

func (req createProductRequest) toInput() (product.CreateProductInput, error) {
	pt, err := enums.ParseProductType(req.Type)
	if err != nil {
		return product.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type")
	}
	return product.CreateProductInput{
		Name:           validators.SanitizeString(req.Name, 120),
		Type:           pt,
		Weight:         req.Weight,
		Price:          req.Price,
		OriginalPrice:  req.OriginalPrice,
		DeliveryCharge: req.DeliveryCharge,
		Description:    strings.TrimSpace(req.Description),
		Image:          strings.TrimSpace(req.Image),
		InStock:        req.InStock,
		Quantity:       req.Quantity,
	}, nil
}

// AdminCreateProduct adds a catalog entry.
func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateProduct(r.Context(), sess, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type updateProductRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Type           *string          `json:"type,omitempty"`
	Weight         *decimal.Decimal `json:"weight,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice  *decimal.Decimal `json:"original_price,omitempty"`
	DeliveryCharge *decimal.Decimal `json:"delivery_charge,omitempty"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image          *string          `json:"image,omitempty" validate:"omitempty,max=500"`
	InStock        *bool            `json:"in_stock,omitempty"`
	Quantity       *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
}

func (req updateProductRequest) toInput() (product.UpdateProductInput, error) {
	input := product.UpdateProductInput{
		Name:           req.Name,
		Weight:         req.Weight,
		Price:          req.Price,
		OriginalPrice:  req.OriginalPrice,
		DeliveryCharge: req.DeliveryCharge,
		Description:    req.Description,
		Image:          req.Image,
		InStock:        req.InStock,
		Quantity:       req.Quantity,
	}
	if req.Type != nil {
		pt, err := enums.ParseProductType(*req.Type)
		if err != nil {
			return product.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type")
		}
		input.Type = &pt
	}
	return input, nil
}

func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateProduct(r.Context(), sess, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), sess, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type stockRequest struct {
	InStock  *bool `json:"in_stock" validate:"required"`
	Quantity *int  `json:"quantity,omitempty" validate:"omitempty,min=0"`
}

// AdminSetStock toggles availability and optionally resets the quantity.
func AdminSetStock(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req stockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetStock(r.Context(), sess, id, product.StockInput{InStock: *req.InStock, Quantity: req.Quantity})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

package controllers

import (
	"net/http"

	"github.com/chocandle/cho-candle-backend/api/responses"
	"github.com/chocandle/cho-candle-backend/api/validators"
	product "github.com/chocandle/cho-candle-backend/internal/products"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

type productRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Slug         *string `json:"slug,omitempty" validate:"omitempty,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	Mood         *string `json:"mood,omitempty" validate:"omitempty,max=50"`
	Size         *string `json:"size,omitempty" validate:"omitempty,max=50"`
	Price        int64   `json:"price" validate:"gte=0"`
	Stock        *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsBestSeller bool    `json:"isBestSeller"`
	ImageURL     *string `json:"imageUrl,omitempty" validate:"omitempty,max=2048"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

func (p productRequest) toInput() product.ProductInput {
	return product.ProductInput{
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Mood:         p.Mood,
		Size:         p.Size,
		Price:        p.Price,
		Stock:        p.Stock,
		IsBestSeller: p.IsBestSeller,
		ImageURL:     p.ImageURL,
		IsActive:     p.IsActive,
	}
}

func AdminProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		filter, err := catalogFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.AdminList(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AdminProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Update(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AdminProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

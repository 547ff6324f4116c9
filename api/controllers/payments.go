package controllers

import (
	"net/http"
	"strings"

	"github.com/chocandle/cho-candle-backend/api/responses"
	"github.com/chocandle/cho-candle-backend/api/validators"
	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
	"github.com/chocandle/cho-candle-backend/internal/payments"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

// legacyUser is the storefront's user block. Its id and email are
// informational only; the session decides who owns the order.
type legacyUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
}

type createSessionRequest struct {
	Items []checkoutLine `json:"items" validate:"required,min=1,dive"`
	User  *legacyUser    `json:"user"`
}

// confirmOrderRequest items are optional; when sent they must match the session.
type confirmOrderRequest struct {
	SessionID string         `json:"sessionId" validate:"required"`
	Items     []checkoutLine `json:"items" validate:"omitempty,dive"`
	User      *legacyUser    `json:"user" validate:"required"`
}

type createSessionResponse struct {
	URL string `json:"url"`
}

type confirmOrderResponse struct {
	OrderID string `json:"orderId"`
}

func (u legacyUser) toDelivery() helpers.Delivery {
	return helpers.Delivery{
		FullName:     u.FullName,
		Phone:        u.Phone,
		AddressLine1: u.AddressLine1,
		City:         u.City,
		Province:     u.Province,
		PostalCode:   u.PostalCode,
	}
}

// CreateCheckoutSession answers POST /api/create-checkout-session with {url}.
func CreateCheckoutSession(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createSessionRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		url, err := svc.CreateCheckoutSession(r.Context(), session.UserID, payments.SessionInput{Items: toLines(req.Items)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, createSessionResponse{URL: url})
	}
}

// ConfirmOrder answers POST /api/confirm-order with {orderId}.
func ConfirmOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmOrderRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ConfirmOrder(r.Context(), session.UserID, payments.ConfirmInput{
			SessionID: strings.TrimSpace(req.SessionID),
			Items:     toLines(req.Items),
			Delivery:  req.User.toDelivery(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, confirmOrderResponse{OrderID: result.OrderID.String()})
	}
}

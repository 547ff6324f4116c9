package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/api/middleware"
	"github.com/chocandle/cho-candle-backend/api/responses"
	"github.com/chocandle/cho-candle-backend/api/validators"
	"github.com/chocandle/cho-candle-backend/internal/checkout"
	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

type checkoutLine struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
}

type deliveryRequest struct {
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	City         string `json:"city" validate:"required"`
	Province     string `json:"province" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required"`
}

type checkoutRequest struct {
	RequestID     *string         `json:"requestId,omitempty" validate:"omitempty,max=200"`
	Items         []checkoutLine  `json:"items,omitempty" validate:"omitempty,dive"`
	Delivery      deliveryRequest `json:"delivery" validate:"required"`
	PaymentMethod string          `json:"paymentMethod" validate:"required"`
}

type checkoutResponse struct {
	Order orders.OrderDTO `json:"order"`
}

func (d deliveryRequest) toDelivery() helpers.Delivery {
	return helpers.Delivery{
		FullName:     d.FullName,
		Phone:        d.Phone,
		AddressLine1: d.AddressLine1,
		City:         d.City,
		Province:     d.Province,
		PostalCode:   d.PostalCode,
	}
}

func toLines(items []checkoutLine) []helpers.Line {
	lines := make([]helpers.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, helpers.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// CheckoutPlaceOrder places an order from the posted items or the stored cart.
// The Idempotency-Key header stands in for requestId when the body omits it.
func CheckoutPlaceOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.RequestID == nil {
			if key := strings.TrimSpace(r.Header.Get(middleware.IdempotencyKeyHeader)); key != "" {
				req.RequestID = &key
			}
		}

		var lines []helpers.Line
		if len(req.Items) > 0 {
			lines = toLines(req.Items)
		}
		result, err := svc.PlaceOrder(r.Context(), session.UserID, checkout.PlaceOrderInput{
			RequestID:     req.RequestID,
			Items:         lines,
			Delivery:      req.Delivery.toDelivery(),
			PaymentMethod: enums.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Replayed {
			logg.Info(logg.WithOrderID(r.Context(), result.Order.ID.String()), "checkout.replayed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{Order: result.Order})
	}
}

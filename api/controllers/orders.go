package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/api/responses"
	"github.com/chocandle/cho-candle-backend/api/validators"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

type reportIssueRequest struct {
	Description string  `json:"description" validate:"required,max=2000"`
	PhotoURL    *string `json:"photoUrl,omitempty" validate:"omitempty,url,max=2048"`
}

type requestRefundRequest struct {
	Reason   string  `json:"reason" validate:"required,max=2000"`
	PhotoURL *string `json:"photoUrl,omitempty" validate:"omitempty,url,max=2048"`
}

func ordersUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			ordersUnavailable(w, r, logg)
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, ok := orders.ParseGroup(strings.TrimSpace(r.URL.Query().Get("group")))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "group must be active or finished").
				WithDetails(map[string]any{"field": "group"}))
			return
		}
		list, err := svc.List(r.Context(), session.UserID, group)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderSummary(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			ordersUnavailable(w, r, logg)
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), session.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			ordersUnavailable(w, r, logg)
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Detail(r.Context(), session.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// orderAction runs a customer transition that needs no body.
func orderAction(svc orders.Service, logg *logger.Logger, action func(orders.Service, *http.Request, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			ordersUnavailable(w, r, logg)
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithOrderID(r.Context(), orderID.String())
		order, err := action(svc, r.WithContext(ctx), session.UserID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(svc orders.Service, r *http.Request, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
		return svc.Cancel(r.Context(), userID, orderID)
	})
}

func OrderConfirmReceipt(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(svc orders.Service, r *http.Request, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
		return svc.ConfirmReceipt(r.Context(), userID, orderID)
	})
}

func OrderReportIssue(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(svc orders.Service, r *http.Request, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
		var req reportIssueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.ReportIssue(r.Context(), userID, orderID, orders.IssueInput{
			Description: validators.SanitizeString(req.Description, 2000),
			PhotoURL:    req.PhotoURL,
		})
	})
}

func OrderRequestRefund(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, func(svc orders.Service, r *http.Request, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
		var req requestRefundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.RequestRefund(r.Context(), userID, orderID, orders.RefundInput{
			Reason:   validators.SanitizeString(req.Reason, 2000),
			PhotoURL: req.PhotoURL,
		})
	})
}

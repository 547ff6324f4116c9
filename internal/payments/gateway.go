package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/chocandle/cho-candle-backend/pkg/stripe"
)

// ProviderStripe is recorded on orders paid through hosted checkout.
const ProviderStripe = "stripe"

// PaymentStatusPaid is the only session status that materializes an order.
const PaymentStatusPaid = "paid"

// LineItem is one hosted-checkout line in the smallest currency unit.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes a hosted checkout page.
type SessionRequest struct {
	Currency   string
	Lines      []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the provider-neutral view of a hosted checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	// AmountTotal is what the processor charged, in satang.
	AmountTotal int64
	Metadata    map[string]string
}

// Gateway is the payment processor contract.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}

// StripeGateway talks to Stripe Checkout.
type StripeGateway struct {
	client *pkgstripe.Client
}

// NewStripeGateway wraps the configured Stripe client.
func NewStripeGateway(client *pkgstripe.Client) (*StripeGateway, error) {
	if client == nil || client.API() == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &StripeGateway{client: client}, nil
}

// Currency is the configured checkout currency.
func (g *StripeGateway) Currency() string {
	return g.client.Currency()
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = g.client.Currency()
	}
	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   req.Metadata,
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	sess, err := g.client.API().V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return fromStripe(sess), nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	sess, err := g.client.API().V1CheckoutSessions.Retrieve(ctx, id, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		return nil, err
	}
	return fromStripe(sess), nil
}

func fromStripe(sess *stripe.CheckoutSession) *Session {
	if sess == nil {
		return nil
	}
	return &Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Metadata:      sess.Metadata,
	}
}

package helpers

import (
	"strings"

	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

const maxFieldLength = 255

// Delivery is the shipping form snapshotted onto the order.
type Delivery struct {
	FullName     string
	Phone        string
	AddressLine1 string
	City         string
	Province     string
	PostalCode   string
}

// Normalize trims every field.
func (d Delivery) Normalize() Delivery {
	return Delivery{
		FullName:     strings.TrimSpace(d.FullName),
		Phone:        strings.TrimSpace(d.Phone),
		AddressLine1: strings.TrimSpace(d.AddressLine1),
		City:         strings.TrimSpace(d.City),
		Province:     strings.TrimSpace(d.Province),
		PostalCode:   strings.TrimSpace(d.PostalCode),
	}
}

// ValidateDelivery requires every shipping field after trimming.
func ValidateDelivery(d Delivery) error {
	d = d.Normalize()
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", d.FullName},
		{"phone", d.Phone},
		{"addressLine1", d.AddressLine1},
		{"city", d.City},
		{"province", d.Province},
		{"postalCode", d.PostalCode},
	}
	details := map[string]string{}
	for _, f := range fields {
		switch {
		case f.value == "":
			details[f.name] = "required"
		case len(f.value) > maxFieldLength:
			details[f.name] = "too long"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery details incomplete").WithDetails(details)
	}
	return nil
}

// ValidateFormPaymentMethod accepts the methods the checkout form offers.
func ValidateFormPaymentMethod(method enums.PaymentMethod) error {
	if !method.IsCheckoutFormMethod() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]string{"paymentMethod": "must be cod or bank_transfer"})
	}
	return nil
}

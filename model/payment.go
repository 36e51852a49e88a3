package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the gateway-reported state of a payment attempt. The
// lower-case "queued" value is what the gateway emits for a freshly created
// invoice; everything after that is upper-case.
type PaymentStatus string

const (
	StatusQueued         PaymentStatus = "queued"
	StatusProcessing     PaymentStatus = "PROCESSING"
	StatusRequiresAction PaymentStatus = "REQUIRES_ACTION"
	StatusManualReview   PaymentStatus = "MANUAL_REVIEW"
	StatusSucceeded      PaymentStatus = "SUCCEEDED"
	StatusInvalid        PaymentStatus = "INVALID"
	StatusFailed         PaymentStatus = "FAILED"
	StatusCanceled       PaymentStatus = "CANCELED"
	StatusExpired        PaymentStatus = "EXPIRED"
)

// IsTerminal reports whether no further status change is expected without a
// new payment attempt.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled, StatusExpired, StatusInvalid:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// Action types and descriptors as emitted by the gateway.
const (
	ActionPresentToCustomer = "PRESENT_TO_CUSTOMER"
	ActionRedirectCustomer  = "REDIRECT_CUSTOMER"
	ActionRedirect          = "REDIRECT"

	DescriptorVANumber    = "VIRTUAL_ACCOUNT_NUMBER"
	DescriptorQRString    = "QR_STRING"
	DescriptorPaymentCode = "PAYMENT_CODE"
	DescriptorWebURL      = "WEB_URL"
	DescriptorDeeplinkURL = "DEEPLINK_URL"
)

// PaymentAction is a gateway-provided instruction primitive: a value to
// present to the customer or a URL to send them to.
type PaymentAction struct {
	Type       string `json:"type"`
	Descriptor string `json:"descriptor"`
	Value      string `json:"value"`
}

// IsRedirect reports whether the action sends the customer to an external
// page rather than presenting a value.
func (a PaymentAction) IsRedirect() bool {
	if a.Type != ActionRedirectCustomer && a.Type != ActionRedirect {
		return false
	}
	return a.Descriptor == DescriptorWebURL || a.Descriptor == DescriptorDeeplinkURL
}

type PaymentTransaction struct {
	Actions           []PaymentAction `json:"actions,omitempty"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	CancellationToken string          `json:"cancellation_token,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
}

// PaymentStatusSnapshot is one immutable status fetch result. Errors carries
// the raw field-keyed validation payload for INVALID statuses; values are
// either a string or a list of strings.
type PaymentStatusSnapshot struct {
	Status      PaymentStatus          `json:"status"`
	ReferenceID string                 `json:"reference_id,omitempty"`
	Transaction *PaymentTransaction    `json:"transaction,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Errors      map[string]interface{} `json:"errors,omitempty"`
}

func (p *PaymentStatusSnapshot) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// PaymentAttempt tracks one invoice submission. TrackingID is the pre-invoice
// polling ticket; ReferenceID supersedes it once the gateway durably records
// the transaction. The two are never both meaningful at once.
type PaymentAttempt struct {
	TrackingID  string                 `json:"tracking_id,omitempty"`
	ReferenceID string                 `json:"reference_id,omitempty"`
	Snapshot    *PaymentStatusSnapshot `json:"snapshot,omitempty"`
}

// Adopt applies a fresh snapshot, promoting the reference id when present.
func (a *PaymentAttempt) Adopt(snapshot *PaymentStatusSnapshot) {
	a.Snapshot = snapshot
	if snapshot != nil && snapshot.ReferenceID != "" {
		a.ReferenceID = snapshot.ReferenceID
		a.TrackingID = ""
	}
}

// Fee calculation modes for payment channels.
const (
	FeeTypeFlat    = "flat"
	FeeTypePercent = "percent"
)

// Channel is a selectable payment method instance from the gateway catalog.
type Channel struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	FeeType  string          `json:"fee_type"`
	FeeValue decimal.Decimal `json:"fee_value"`
	Logo     string          `json:"logo,omitempty"`
	Active   bool            `json:"active"`
}

// Fee computes the channel fee for the given amount.
func (c Channel) Fee(amount decimal.Decimal) decimal.Decimal {
	switch c.FeeType {
	case FeeTypePercent:
		return amount.Mul(c.FeeValue).Div(decimal.NewFromInt(100))
	case FeeTypeFlat:
		return c.FeeValue
	}
	return decimal.Zero
}

// PaymentMethodCatalog groups channels by gateway category key.
type PaymentMethodCatalog map[string][]Channel

// FindChannel looks a channel up by code across every category,
// case-insensitively.
func (c PaymentMethodCatalog) FindChannel(code string) (Channel, bool) {
	code = strings.TrimSpace(code)
	for _, channels := range c {
		for _, ch := range channels {
			if strings.EqualFold(ch.Code, code) {
				return ch, true
			}
		}
	}
	return Channel{}, false
}

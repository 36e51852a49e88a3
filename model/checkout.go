package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutStep identifies where a checkout session currently is in the
// purchase flow.
type CheckoutStep string

const (
	StepLoading    CheckoutStep = "loading"
	StepInfo       CheckoutStep = "info"
	StepPayment    CheckoutStep = "payment"
	StepLoadingPay CheckoutStep = "loading_pay"
	StepProcessing CheckoutStep = "processing"
	StepSuccess    CheckoutStep = "success"
)

// IsBusy reports whether the step is a transient state with no user input.
func (s CheckoutStep) IsBusy() bool {
	return s == StepLoading || s == StepLoadingPay
}

func (s CheckoutStep) String() string {
	return string(s)
}

// CheckoutOutcome tags the success step with how the attempt ended.
type CheckoutOutcome string

const (
	OutcomeSucceeded CheckoutOutcome = "succeeded"
	OutcomeCanceled  CheckoutOutcome = "canceled"
	OutcomeFailed    CheckoutOutcome = "failed"
	OutcomeExpired   CheckoutOutcome = "expired"
)

// CustomerField is a logical customer-info field name, the target of the
// field-error classifier's alias table.
type CustomerField string

const (
	CustomerFieldName  CustomerField = "name"
	CustomerFieldEmail CustomerField = "email"
	CustomerFieldPhone CustomerField = "phone"
)

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

type LineItem struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// FieldErrorSet is the classifier's partition of an upstream validation
// payload. Customer holds messages keyed by logical customer field, Channel
// holds everything else keyed by the verbatim (possibly dotted) field path.
type FieldErrorSet struct {
	Customer       map[CustomerField]string `json:"customer"`
	Channel        map[string]string        `json:"channel"`
	HasCustomerErr bool                     `json:"has_customer_err"`
	HasChannelErr  bool                     `json:"has_channel_err"`
}

// SessionSnapshot is the read-only view of a session published to
// subscribers after every transition.
type SessionSnapshot struct {
	SessionID    string                 `json:"session_id"`
	Step         CheckoutStep           `json:"step"`
	Outcome      CheckoutOutcome        `json:"outcome,omitempty"`
	ReferenceID  string                 `json:"reference_id,omitempty"`
	Channel      string                 `json:"channel,omitempty"`
	Subtotal     decimal.Decimal        `json:"subtotal"`
	Discount     decimal.Decimal        `json:"discount"`
	Total        decimal.Decimal        `json:"total"`
	Message      string                 `json:"message,omitempty"`
	FieldErrors  *FieldErrorSet         `json:"field_errors,omitempty"`
	Instructions *ResolvedInstructions  `json:"instructions,omitempty"`
	ManualReview bool                   `json:"manual_review,omitempty"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
	At           time.Time              `json:"at"`
}

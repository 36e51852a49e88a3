/*
Copyright 2024 Gamehostify Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package checkout

import (
	"context"
	"net/http"

	"github.com/agusprema/gamehostify-checkout/config"
	"github.com/agusprema/gamehostify-checkout/internal/apierror"
	"github.com/agusprema/gamehostify-checkout/internal/request"
	"github.com/agusprema/gamehostify-checkout/model"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Gateway talks to the upstream commerce/payment gateway: payment method
// catalog, invoice creation, status polling, cancellation, and the cart
// collaborator endpoints.
type Gateway struct {
	baseURL string
	apiKey  string
}

func NewGateway(cfg config.GatewayConfig) *Gateway {
	return &Gateway{baseURL: cfg.BaseURL, apiKey: cfg.APIKey}
}

// CartContents is what the external cart collaborator reports for the
// current shopper.
type CartContents struct {
	Items    []model.LineItem `json:"items"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Discount decimal.Decimal  `json:"discount"`
}

// CartProvider abstracts the external cart/identity collaborator. The core
// only needs cart contents for the summary and a non-empty token string as a
// precondition for invoice creation.
type CartProvider interface {
	Contents(ctx context.Context) (*CartContents, error)
	IssueToken(ctx context.Context) (string, error)
}

// CreateInvoiceRequest is the invoice-creation payload. Customer is inlined
// only when no authenticated identity is attached to the cart token.
type CreateInvoiceRequest struct {
	CartToken         string                 `json:"cart_token"`
	ChannelCode       string                 `json:"channel_code"`
	ChannelProperties map[string]interface{} `json:"channel_properties,omitempty"`
	CouponCode        string                 `json:"coupon_code,omitempty"`
	Customer          *model.CustomerInfo    `json:"customer,omitempty"`
}

type createInvoiceResponse struct {
	Status string `json:"status"`
	Data   struct {
		TrackingID string `json:"tracking_id"`
	} `json:"data"`
	Errors  map[string]interface{} `json:"errors"`
	Message string                 `json:"message"`
}

type statusResponse struct {
	Status  string                       `json:"status"`
	Data    *model.PaymentStatusSnapshot `json:"data"`
	Message string                       `json:"message"`
}

type methodsResponse struct {
	Status string                     `json:"status"`
	Data   model.PaymentMethodCatalog `json:"data"`
}

type cartResponse struct {
	Status string        `json:"status"`
	Data   *CartContents `json:"data"`
}

type tokenResponse struct {
	Status string `json:"status"`
	Data   struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		payload, jerr := request.ToJsonReq(body)
		if jerr != nil {
			return nil, jerr
		}
		req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, payload)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	if g.apiKey != "" {
		req.Header.Set("X-Api-Key", g.apiKey)
	}
	return req, nil
}

// PaymentMethods fetches the categorized channel catalog.
func (g *Gateway) PaymentMethods(ctx context.Context) (model.PaymentMethodCatalog, error) {
	req, err := g.newRequest(ctx, http.MethodGet, "/payment-methods", nil)
	if err != nil {
		return nil, err
	}

	var response methodsResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransport, "failed to load payment methods", errors.Wrap(err, "payment methods fetch"))
	}
	if resp.StatusCode >= 400 || response.Data == nil {
		return nil, apierror.NewAPIError(apierror.ErrUnexpectedResponse, "payment method catalog unavailable", response.Status)
	}
	return response.Data, nil
}

// CreateInvoice submits a payment attempt and returns the gateway's tracking
// ticket. A 422 surfaces as a VALIDATION_FAILED error whose details carry
// the raw field-keyed payload for the classifier.
func (g *Gateway) CreateInvoice(ctx context.Context, payload CreateInvoiceRequest) (string, error) {
	req, err := g.newRequest(ctx, http.MethodPost, "/invoices", payload)
	if err != nil {
		return "", err
	}

	var response createInvoiceResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		return "", apierror.NewAPIError(apierror.ErrTransport, "failed to reach payment gateway", errors.Wrap(err, "invoice creation"))
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return "", apierror.NewAPIError(apierror.ErrValidation, "invoice rejected by gateway", response.Errors)
	case resp.StatusCode >= 400:
		return "", apierror.NewAPIError(apierror.ErrUnexpectedResponse, "invoice creation failed", response.Message)
	case response.Data.TrackingID == "":
		return "", apierror.NewAPIError(apierror.ErrUnexpectedResponse, "gateway returned no tracking id", response)
	}

	return response.Data.TrackingID, nil
}

// PaymentStatus fetches the current status snapshot for a tracking ticket.
// Transport and parse failures come back as TRANSPORT_ERROR (transient for
// the poller); a 400/404 means the ticket is gone.
func (g *Gateway) PaymentStatus(ctx context.Context, trackingID string) (*model.PaymentStatusSnapshot, error) {
	req, err := g.newRequest(ctx, http.MethodGet, "/payments/"+trackingID+"/status", nil)
	if err != nil {
		return nil, err
	}

	var response statusResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrTicketExpired, "tracking ticket no longer valid", trackingID)
		}
		return nil, apierror.NewAPIError(apierror.ErrTransport, "status fetch failed", errors.Wrap(err, "payment status"))
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, apierror.NewAPIError(apierror.ErrTicketExpired, "tracking ticket no longer valid", trackingID)
	}
	if resp.StatusCode >= 400 || response.Status != "success" || response.Data == nil {
		return nil, apierror.NewAPIError(apierror.ErrUnexpectedResponse, "unrecognized status payload", response.Message)
	}
	return response.Data, nil
}

// CancelPayment asks the gateway to cancel a recorded payment.
func (g *Gateway) CancelPayment(ctx context.Context, referenceID, cancellationToken string) error {
	body := map[string]string{
		"reference_id":       referenceID,
		"cancellation_token": cancellationToken,
	}
	req, err := g.newRequest(ctx, http.MethodPost, "/payments/cancel", body)
	if err != nil {
		return err
	}

	var response map[string]interface{}
	resp, err := request.Call(req, &response)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrTransport, "failed to cancel payment", errors.Wrap(err, "payment cancel"))
	}
	if resp.StatusCode >= 400 {
		return apierror.NewAPIError(apierror.ErrUnexpectedResponse, "payment cancellation rejected", response)
	}
	return nil
}

// Contents implements CartProvider against the commerce API's cart endpoint.
func (g *Gateway) Contents(ctx context.Context) (*CartContents, error) {
	req, err := g.newRequest(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}

	var response cartResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransport, "failed to load cart", errors.Wrap(err, "cart fetch"))
	}
	if resp.StatusCode >= 400 || response.Data == nil {
		return nil, apierror.NewAPIError(apierror.ErrUnexpectedResponse, "cart unavailable", response.Status)
	}
	return response.Data, nil
}

// IssueToken implements CartProvider. The gateway mints a guest cart token;
// an empty token is treated as failure because invoice creation requires a
// non-empty one.
func (g *Gateway) IssueToken(ctx context.Context) (string, error) {
	req, err := g.newRequest(ctx, http.MethodPost, "/cart/token", nil)
	if err != nil {
		return "", err
	}

	var response tokenResponse
	resp, err := request.Call(req, &response)
	if err != nil {
		return "", apierror.NewAPIError(apierror.ErrTransport, "failed to issue cart token", errors.Wrap(err, "cart token"))
	}
	if resp.StatusCode >= 400 || response.Data.Token == "" {
		return "", apierror.NewAPIError(apierror.ErrUnexpectedResponse, "gateway returned no cart token", response.Status)
	}
	return response.Data.Token, nil
}

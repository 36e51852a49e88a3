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
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/agusprema/gamehostify-checkout/config"
	"github.com/agusprema/gamehostify-checkout/internal/cache"
	"github.com/agusprema/gamehostify-checkout/model"
)

const testGatewayURL = "http://gateway.test"

func newTestCheckout(t *testing.T) *Checkout {
	t.Helper()

	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		ProjectName: "Gamehostify Checkout",
		Gateway:     config.GatewayConfig{BaseURL: testGatewayURL, APIKey: "test-key"},
		Redis:       config.RedisConfig{Dns: mr.Addr()},
	})

	gateway := NewGateway(config.GatewayConfig{BaseURL: testGatewayURL, APIKey: "test-key"})
	ca, err := cache.NewCache()
	assert.NoError(t, err)

	return &Checkout{
		gateway:        gateway,
		carts:          gateway,
		tokens:         NewCartTokenCache(gateway, ca),
		instructionCfg: testInstructionConfig(),
		pollerCfg:      config.PollerConfig{BaseDelayMs: 10, MaxDelayMs: 40},
	}
}

func registerCartResponders() {
	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/cart",
		httpmock.NewStringResponder(200, `{
			"status": "success",
			"data": {
				"items": [
					{"sku": "GOLD-100", "name": "100 Gold", "quantity": 2, "price": 50000},
					{"sku": "SKIN-DRAGON", "name": "Dragon Skin", "quantity": 1, "price": 50000}
				],
				"subtotal": 150000,
				"discount": 10000
			}
		}`))

	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/payment-methods",
		httpmock.NewStringResponder(200, `{
			"status": "success",
			"data": {
				"banks": [
					{"code": "BCA", "name": "BCA", "fee_type": "flat", "fee_value": 4000, "active": true}
				],
				"ewallets": [
					{"code": "OVO", "name": "OVO", "fee_type": "percent", "fee_value": 2, "active": true}
				]
			}
		}`))

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/cart/token",
		httpmock.NewStringResponder(200, `{"status": "success", "data": {"token": "cart-token-1"}}`))
}

func loadedSession(t *testing.T, ck *Checkout) *Session {
	t.Helper()
	registerCartResponders()

	s := ck.NewSession(false)
	t.Cleanup(s.Close)
	assert.NoError(t, s.Load(context.Background()))
	return s
}

func paymentReadySession(t *testing.T, ck *Checkout) *Session {
	t.Helper()
	s := loadedSession(t, ck)
	assert.NoError(t, s.SubmitCustomerInfo(model.CustomerInfo{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
		Phone: gofakeit.Phone(),
	}))
	assert.NoError(t, s.SelectChannel("BCA", nil))
	return s
}

func TestSessionLoad(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)

	snap := s.Snapshot()
	assert.Equal(t, model.StepInfo, snap.Step)
	assert.True(t, snap.Subtotal.Equal(decimal.NewFromInt(150000)))
	assert.True(t, snap.Discount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(140000)))
	assert.Empty(t, snap.Message)
}

func TestSessionLoadFailureIsRetryable(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	registerCartResponders()
	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/cart",
		httpmock.NewStringResponder(500, `{"status": "failed"}`))

	s := ck.NewSession(false)
	defer s.Close()

	err := s.Load(context.Background())
	assert.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, model.StepLoading, snap.Step)
	assert.NotEmpty(t, snap.Message)

	// Once the collaborator recovers the same session loads fine.
	registerCartResponders()
	assert.NoError(t, s.Load(context.Background()))
	assert.Equal(t, model.StepInfo, s.Snapshot().Step)
}

func TestSessionLoadOnlyOnce(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)

	err := s.Load(context.Background())
	assert.Error(t, err)
}

func TestSubmitCustomerInfoAdvancesToPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)

	err := s.SubmitCustomerInfo(model.CustomerInfo{Name: "Agus", Email: "a@b.co", Phone: "+62"})
	assert.NoError(t, err)
	assert.Equal(t, model.StepPayment, s.Snapshot().Step)

	// Not accepted twice.
	err = s.SubmitCustomerInfo(model.CustomerInfo{Name: "Agus", Email: "a@b.co", Phone: "+62"})
	assert.Error(t, err)
}

func TestSelectChannelRecomputesTotalWithFee(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	// Flat fee channel.
	snap := s.Snapshot()
	assert.Equal(t, "BCA", snap.Channel)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(144000)), "got %s", snap.Total)

	// Percent fee channel replaces, not stacks: 140000 + 2%.
	assert.NoError(t, s.SelectChannel("ovo", nil))
	snap = s.Snapshot()
	assert.Equal(t, "OVO", snap.Channel)
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(142800)), "got %s", snap.Total)
}

func TestSelectChannelUnknownCode(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)
	assert.NoError(t, s.SubmitCustomerInfo(model.CustomerInfo{Name: "A", Email: "a@b.co"}))

	err := s.SelectChannel("DOESNOTEXIST", nil)
	assert.Error(t, err)
}

func TestCheckoutFlowSucceeds(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/invoices",
		httpmock.NewStringResponder(200, `{"status": "success", "data": {"tracking_id": "trk_1"}}`))

	var polls int32
	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/payments/trk_1/status",
		func(req *http.Request) (*http.Response, error) {
			switch atomic.AddInt32(&polls, 1) {
			case 1:
				return httpmock.NewStringResponse(200, `{"status": "success", "data": {"status": "queued"}}`), nil
			case 2:
				return httpmock.NewStringResponse(200, `{"status": "success", "data": {"status": "PROCESSING"}}`), nil
			default:
				return httpmock.NewStringResponse(200, `{"status": "success", "data": {"status": "SUCCEEDED", "reference_id": "INV-001"}}`), nil
			}
		})

	assert.NoError(t, s.SubmitPayment(context.Background()))
	assert.Equal(t, model.StepProcessing, s.Snapshot().Step)

	assert.Eventually(t, func() bool {
		return s.Snapshot().Step == model.StepSuccess
	}, 5*time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, model.OutcomeSucceeded, snap.Outcome)
	assert.Equal(t, "INV-001", snap.ReferenceID)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(3))
}

func TestSubmitPaymentRequiresChannel(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)
	assert.NoError(t, s.SubmitCustomerInfo(model.CustomerInfo{Name: "A", Email: "a@b.co"}))

	err := s.SubmitPayment(context.Background())
	assert.Error(t, err)
	assert.Equal(t, model.StepPayment, s.Snapshot().Step)
}

func TestSubmitPaymentTokenFailureAbortsLocally(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/cart/token",
		httpmock.NewStringResponder(500, `{"status": "failed"}`))

	err := s.SubmitPayment(context.Background())
	assert.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, model.StepPayment, snap.Step)
	assert.NotEmpty(t, snap.Message)

	// No invoice call was attempted.
	info := httpmock.GetCallCountInfo()
	assert.Zero(t, info["POST "+testGatewayURL+"/invoices"])
}

func TestSubmitPaymentValidationRoutesToInfo(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/invoices",
		httpmock.NewStringResponder(422, `{
			"status": "failed",
			"errors": {
				"email": ["Email wajib diisi"],
				"channel_properties.card_details.cvn": ["Required"]
			},
			"message": "validation failed"
		}`))

	err := s.SubmitPayment(context.Background())
	assert.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, model.StepInfo, snap.Step)
	assert.NotNil(t, snap.FieldErrors)
	assert.True(t, snap.FieldErrors.HasCustomerErr)
	assert.Equal(t, "Email wajib diisi", snap.FieldErrors.Customer[model.CustomerFieldEmail])
	assert.Equal(t, "Required", snap.FieldErrors.Channel["channel_properties.card_details.cvn"])
}

func TestSubmitPaymentChannelOnlyValidationRoutesToPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/invoices",
		httpmock.NewStringResponder(422, `{
			"status": "failed",
			"errors": {"channel_properties.mobile_number": ["Invalid format"]}
		}`))

	err := s.SubmitPayment(context.Background())
	assert.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, model.StepPayment, snap.Step)
	assert.NotNil(t, snap.FieldErrors)
	assert.False(t, snap.FieldErrors.HasCustomerErr)
	assert.True(t, snap.FieldErrors.HasChannelErr)
}

func TestSubmitPaymentGatewayFailureReturnsToPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/invoices",
		httpmock.NewStringResponder(500, `{"status": "failed", "message": "internal error"}`))

	err := s.SubmitPayment(context.Background())
	assert.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, model.StepPayment, snap.Step)
	assert.NotEmpty(t, snap.Message)
}

func TestFailedStatusReturnsToPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/invoices",
		httpmock.NewStringResponder(200, `{"status": "success", "data": {"tracking_id": "trk_f"}}`))
	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/payments/trk_f/status",
		httpmock.NewStringResponder(200, `{"status": "success", "data": {"status": "FAILED", "message": "saldo tidak cukup"}}`))

	assert.NoError(t, s.SubmitPayment(context.Background()))

	assert.Eventually(t, func() bool {
		return s.Snapshot().Step == model.StepPayment
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "saldo tidak cukup", s.Snapshot().Message)
}

func TestResubmitFromProcessingSupersedesAttempt(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := paymentReadySession(t, ck)

	var invoices int32
	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/invoices",
		func(req *http.Request) (*http.Response, error) {
			n := atomic.AddInt32(&invoices, 1)
			return httpmock.NewStringResponse(200,
				fmt.Sprintf(`{"status": "success", "data": {"tracking_id": "trk_%d"}}`, n)), nil
		})
	// The first ticket never settles; the second one succeeds.
	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/payments/trk_1/status",
		httpmock.NewStringResponder(200, `{"status": "success", "data": {"status": "PROCESSING"}}`))
	httpmock.RegisterResponder(http.MethodGet, testGatewayURL+"/payments/trk_2/status",
		httpmock.NewStringResponder(200, `{"status": "success", "data": {"status": "SUCCEEDED", "reference_id": "INV-002"}}`))

	assert.NoError(t, s.SubmitPayment(context.Background()))
	assert.Equal(t, model.StepProcessing, s.Snapshot().Step)

	// Resubmission from processing supersedes the active attempt.
	assert.NoError(t, s.SubmitPayment(context.Background()))

	assert.Eventually(t, func() bool {
		return s.Snapshot().Step == model.StepSuccess
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "INV-002", s.Snapshot().ReferenceID)
}

func TestApplySnapshotIgnoresStaleTicket(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.attempt = &model.PaymentAttempt{TrackingID: "trk_live"}
	s.activeTicket = "trk_live"
	s.mu.Unlock()

	s.ApplySnapshot("trk_old", &model.PaymentStatusSnapshot{Status: model.StatusSucceeded, ReferenceID: "INV-STALE"})
	assert.Equal(t, model.StepProcessing, s.Snapshot().Step)

	s.ApplySnapshot("trk_live", &model.PaymentStatusSnapshot{Status: model.StatusSucceeded, ReferenceID: "INV-LIVE"})
	snap := s.Snapshot()
	assert.Equal(t, model.StepSuccess, snap.Step)
	assert.Equal(t, "INV-LIVE", snap.ReferenceID)
}

func TestRequiresActionResolvesInstructions(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.channel = model.Channel{Code: "BCA"}
	s.attempt = &model.PaymentAttempt{TrackingID: "trk_1"}
	s.activeTicket = "trk_1"
	s.mu.Unlock()

	s.ApplySnapshot("trk_1", &model.PaymentStatusSnapshot{
		Status: model.StatusRequiresAction,
		Transaction: &model.PaymentTransaction{
			Actions: []model.PaymentAction{
				{Type: model.ActionPresentToCustomer, Descriptor: model.DescriptorVANumber, Value: "889900"},
			},
		},
	})

	snap := s.Snapshot()
	assert.Equal(t, model.StepProcessing, snap.Step)
	assert.NotNil(t, snap.Instructions)
	assert.Equal(t, "BCA", snap.Instructions.Title)
	assert.Contains(t, snap.Instructions.Sections[0].Steps[2].Text, "889900")
}

func TestManualReviewHoldsProcessingAndNotifiesOnce(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.attempt = &model.PaymentAttempt{TrackingID: "trk_1"}
	s.activeTicket = "trk_1"
	s.mu.Unlock()

	s.ApplySnapshot("trk_1", &model.PaymentStatusSnapshot{Status: model.StatusManualReview})
	s.ApplySnapshot("trk_1", &model.PaymentStatusSnapshot{Status: model.StatusManualReview})

	snap := s.Snapshot()
	assert.Equal(t, model.StepProcessing, snap.Step)
	assert.True(t, snap.ManualReview)
	assert.True(t, s.reviewNotified)
}

func TestInvalidStatusRoutesFieldErrors(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.attempt = &model.PaymentAttempt{TrackingID: "trk_1"}
	s.activeTicket = "trk_1"
	s.mu.Unlock()

	s.ApplySnapshot("trk_1", &model.PaymentStatusSnapshot{
		Status:  model.StatusInvalid,
		Message: "data tidak valid",
		Errors:  map[string]interface{}{"phone_number": []interface{}{"Nomor telepon wajib diisi"}},
	})

	snap := s.Snapshot()
	assert.Equal(t, model.StepInfo, snap.Step)
	assert.Equal(t, "data tidak valid", snap.Message)
	assert.NotNil(t, snap.FieldErrors)
	assert.Equal(t, "Nomor telepon wajib diisi", snap.FieldErrors.Customer[model.CustomerFieldPhone])
}

func TestTicketLostReturnsToPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.attempt = &model.PaymentAttempt{TrackingID: "trk_1"}
	s.activeTicket = "trk_1"
	s.mu.Unlock()

	// A lost ticket for a superseded attempt is ignored.
	s.TicketLost("trk_old")
	assert.Equal(t, model.StepProcessing, s.Snapshot().Step)

	s.TicketLost("trk_1")
	snap := s.Snapshot()
	assert.Equal(t, model.StepPayment, snap.Step)
	assert.NotEmpty(t, snap.Message)
}

func TestCancelPayment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.attempt = &model.PaymentAttempt{
		ReferenceID: "INV-77",
		Snapshot: &model.PaymentStatusSnapshot{
			Status:      model.StatusRequiresAction,
			ReferenceID: "INV-77",
			Transaction: &model.PaymentTransaction{CancellationToken: "cancel-token-77"},
		},
	}
	s.activeTicket = "trk_1"
	s.mu.Unlock()

	httpmock.RegisterResponder(http.MethodPost, testGatewayURL+"/payments/cancel",
		httpmock.NewStringResponder(200, `{"status": "success"}`))

	assert.NoError(t, s.CancelPayment(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, model.StepSuccess, snap.Step)
	assert.Equal(t, model.OutcomeCanceled, snap.Outcome)
	assert.Equal(t, "INV-77", snap.ReferenceID)
}

func TestCancelPaymentRequiresCancellationToken(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)
	defer s.Close()

	s.mu.Lock()
	s.step = model.StepProcessing
	s.attempt = &model.PaymentAttempt{TrackingID: "trk_1"}
	s.activeTicket = "trk_1"
	s.mu.Unlock()

	err := s.CancelPayment(context.Background())
	assert.Error(t, err)
}

func TestResumeSession(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)

	s, err := ck.ResumeSession("INV-9", model.StatusSucceeded)
	assert.NoError(t, err)
	defer s.Close()

	snap := s.Snapshot()
	assert.Equal(t, model.StepSuccess, snap.Step)
	assert.Equal(t, model.OutcomeSucceeded, snap.Outcome)
	assert.Equal(t, "INV-9", snap.ReferenceID)
}

func TestResumeSessionRejectsNonTerminalStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)

	_, err := ck.ResumeSession("INV-9", model.StatusProcessing)
	assert.Error(t, err)
}

func TestApplyCouponOnlyBeforeSubmission(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)

	assert.NoError(t, s.ApplyCoupon("WELCOME10"))

	s.mu.Lock()
	s.step = model.StepProcessing
	s.mu.Unlock()

	assert.Error(t, s.ApplyCoupon("LATECODE"))
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := loadedSession(t, ck)

	updates := s.Subscribe()
	assert.NoError(t, s.SubmitCustomerInfo(model.CustomerInfo{Name: "A", Email: "a@b.co"}))

	select {
	case snap := <-updates:
		assert.Equal(t, model.StepPayment, snap.Step)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	s.Close()
	_, open := <-updates
	assert.False(t, open)
}

func TestCloseStopsPublishing(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	s := ck.NewSession(false)

	s.Close()
	s.Close() // idempotent

	// Snapshots for any ticket are discarded after close.
	s.ApplySnapshot("trk_1", &model.PaymentStatusSnapshot{Status: model.StatusSucceeded})
	assert.Equal(t, model.StepLoading, s.Snapshot().Step)
}

func TestCartTokenCacheEnsureAndReset(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ck := newTestCheckout(t)
	registerCartResponders()

	ctx := context.Background()
	tokens := ck.Tokens()

	token, err := tokens.Ensure(ctx, "owner-1")
	assert.NoError(t, err)
	assert.Equal(t, "cart-token-1", token)

	// Second Ensure hits the cache, not the gateway.
	token, err = tokens.Ensure(ctx, "owner-1")
	assert.NoError(t, err)
	assert.Equal(t, "cart-token-1", token)

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+testGatewayURL+"/cart/token"])

	// Reset drops the cached token so the next Ensure mints again.
	assert.NoError(t, tokens.Reset(ctx, "owner-1"))
	_, err = tokens.Ensure(ctx, "owner-1")
	assert.NoError(t, err)

	info = httpmock.GetCallCountInfo()
	assert.Equal(t, 2, info["POST "+testGatewayURL+"/cart/token"])
}

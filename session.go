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
	"errors"
	"sync"
	"time"

	"github.com/agusprema/gamehostify-checkout/internal/apierror"
	"github.com/agusprema/gamehostify-checkout/internal/notification"
	"github.com/agusprema/gamehostify-checkout/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Session is the root aggregate for one checkout attempt. It owns the
// current step, the customer data, the selected channel, and the single
// active payment attempt. At most one poller runs per session; adopting a
// new tracking ticket cancels the previous one first.
type Session struct {
	mu sync.Mutex

	id            string
	step          model.CheckoutStep
	outcome       model.CheckoutOutcome
	authenticated bool

	customer          model.CustomerInfo
	channel           model.Channel
	channelProperties map[string]interface{}
	couponCode        string

	lineItems []model.LineItem
	subtotal  decimal.Decimal
	discount  decimal.Decimal
	total     decimal.Decimal

	catalog      model.PaymentMethodCatalog
	attempt      *model.PaymentAttempt
	activeTicket string
	referenceID  string

	fieldErrors    *model.FieldErrorSet
	message        string
	manualReview   bool
	reviewNotified bool

	resolved *model.ResolvedInstructions

	checkout    *Checkout
	cancelPoll  context.CancelFunc
	subscribers []chan model.SessionSnapshot
	closed      bool
	log         *logrus.Entry
}

// subscriberBuffer bounds each subscriber channel; slow consumers drop
// intermediate snapshots rather than block a transition.
const subscriberBuffer = 16

func newSession(c *Checkout, authenticated bool) *Session {
	id := uuid.New().String()
	return &Session{
		id:            id,
		step:          model.StepLoading,
		authenticated: authenticated,
		subtotal:      decimal.Zero,
		discount:      decimal.Zero,
		total:         decimal.Zero,
		checkout:      c,
		log:           logrus.WithField("session_id", id),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Load gates the loading → info transition: cart contents and the payment
// method catalog are fetched in parallel and the session stays busy until
// both complete, regardless of order. On failure the session remains in
// loading with a retryable message; Load may be called again.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.step != model.StepLoading {
		s.mu.Unlock()
		return apierror.NewAPIError(apierror.ErrConflict, "session already loaded", s.step)
	}
	s.mu.Unlock()

	type cartResult struct {
		contents *CartContents
		err      error
	}
	type methodsResult struct {
		catalog model.PaymentMethodCatalog
		err     error
	}

	cartCh := make(chan cartResult, 1)
	methodsCh := make(chan methodsResult, 1)

	go func() {
		contents, err := s.checkout.carts.Contents(ctx)
		cartCh <- cartResult{contents: contents, err: err}
	}()
	go func() {
		catalog, err := s.checkout.gateway.PaymentMethods(ctx)
		methodsCh <- methodsResult{catalog: catalog, err: err}
	}()

	cart := <-cartCh
	methods := <-methodsCh

	s.mu.Lock()
	defer s.mu.Unlock()

	if cart.err != nil || methods.err != nil {
		err := cart.err
		if err == nil {
			err = methods.err
		}
		s.message = "checkout could not be loaded, please retry"
		s.log.WithError(err).Error("checkout load failed")
		s.publishLocked()
		return err
	}

	s.lineItems = cart.contents.Items
	s.subtotal = cart.contents.Subtotal
	s.discount = cart.contents.Discount
	s.total = s.subtotal.Sub(s.discount)
	s.catalog = methods.catalog
	s.message = ""
	s.step = model.StepInfo
	s.publishLocked()
	return nil
}

// Resume skips straight from loading to the success step for sessions
// reconstructed after a redirect back from an external gateway page. Only
// terminal statuses are acceptable here.
func (s *Session) Resume(referenceID string, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepLoading {
		return apierror.NewAPIError(apierror.ErrConflict, "session already progressed past loading", s.step)
	}
	if !status.IsTerminal() {
		return apierror.NewAPIError(apierror.ErrPrecondition, "resume requires a terminal status", status)
	}

	s.finishLocked(outcomeForStatus(status), referenceID)
	s.publishLocked()
	return nil
}

// SubmitCustomerInfo records validated customer data and advances to the
// payment step. Form-level validation happens in the API layer; the state
// machine only gates the transition.
func (s *Session) SubmitCustomerInfo(info model.CustomerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepInfo {
		return apierror.NewAPIError(apierror.ErrConflict, "customer info is only accepted in the info step", s.step)
	}

	s.customer = info
	s.fieldErrors = nil
	s.message = ""
	s.step = model.StepPayment
	s.publishLocked()
	return nil
}

// SelectChannel picks a payment channel from the catalog and recomputes the
// payable total including the channel fee.
func (s *Session) SelectChannel(code string, properties map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepPayment {
		return apierror.NewAPIError(apierror.ErrConflict, "channel selection is only accepted in the payment step", s.step)
	}

	channel, found := s.catalog.FindChannel(code)
	if !found {
		return apierror.NewAPIError(apierror.ErrNotFound, "unknown payment channel", code)
	}

	base := s.subtotal.Sub(s.discount)
	s.channel = channel
	s.channelProperties = properties
	s.total = base.Add(channel.Fee(base))
	s.fieldErrors = nil
	s.message = ""
	s.publishLocked()
	return nil
}

// ApplyCoupon stores a coupon code to forward on invoice creation.
func (s *Session) ApplyCoupon(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != model.StepInfo && s.step != model.StepPayment {
		return apierror.NewAPIError(apierror.ErrConflict, "coupon can only be applied before payment submission", s.step)
	}
	s.couponCode = code
	return nil
}

// SubmitPayment drives payment → loadingPay → processing. Entry re-issues or
// validates the guest cart token; a failure there aborts locally without an
// invoice call. A submission from processing supersedes the active attempt:
// its poller is stopped before the new ticket is adopted.
func (s *Session) SubmitPayment(ctx context.Context) error {
	s.mu.Lock()
	if s.step != model.StepPayment && s.step != model.StepProcessing {
		s.mu.Unlock()
		return apierror.NewAPIError(apierror.ErrConflict, "payment submission is not allowed in this step", s.step)
	}
	if s.channel.Code == "" {
		s.mu.Unlock()
		return apierror.NewAPIError(apierror.ErrPrecondition, "no payment channel selected", nil)
	}

	// Invalidate any active attempt before anything else: no snapshot for
	// the old ticket may land after this point.
	s.stopPollingLocked()
	s.activeTicket = ""
	s.attempt = nil

	s.step = model.StepLoadingPay
	s.message = ""
	s.fieldErrors = nil
	s.resolved = nil
	s.manualReview = false
	s.reviewNotified = false
	s.publishLocked()

	payload := CreateInvoiceRequest{
		ChannelCode:       s.channel.Code,
		ChannelProperties: s.channelProperties,
		CouponCode:        s.couponCode,
	}
	if !s.authenticated {
		customer := s.customer
		payload.Customer = &customer
	}
	s.mu.Unlock()

	token, err := s.checkout.tokens.Ensure(ctx, s.id)
	if err != nil {
		s.failSubmission(model.StepPayment, "could not prepare your cart for payment, please retry", err)
		return apierror.NewAPIError(apierror.ErrPrecondition, "cart token unavailable", err)
	}
	payload.CartToken = token

	trackingID, err := s.checkout.gateway.CreateInvoice(ctx, payload)
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrValidation {
			if fieldErrs, ok := apiErr.Details.(map[string]interface{}); ok {
				s.routeFieldErrors(fieldErrs, "please correct the highlighted fields")
				return err
			}
		}
		s.failSubmission(model.StepPayment, "payment could not be submitted, please retry", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apierror.NewAPIError(apierror.ErrConflict, "session closed", nil)
	}

	s.attempt = &model.PaymentAttempt{TrackingID: trackingID}
	s.activeTicket = trackingID
	s.step = model.StepProcessing
	s.startPollerLocked(trackingID)
	s.publishLocked()
	return nil
}

// CancelPayment asks the gateway to cancel the active attempt. It requires a
// durable reference id and a cancellation token from the latest snapshot.
func (s *Session) CancelPayment(ctx context.Context) error {
	s.mu.Lock()
	if s.step != model.StepProcessing {
		s.mu.Unlock()
		return apierror.NewAPIError(apierror.ErrConflict, "no payment in progress to cancel", s.step)
	}
	if s.attempt == nil || s.attempt.Snapshot == nil || s.attempt.Snapshot.Transaction == nil ||
		s.attempt.Snapshot.Transaction.CancellationToken == "" || s.attempt.ReferenceID == "" {
		s.mu.Unlock()
		return apierror.NewAPIError(apierror.ErrPrecondition, "payment is not cancellable yet", nil)
	}
	referenceID := s.attempt.ReferenceID
	cancellationToken := s.attempt.Snapshot.Transaction.CancellationToken
	s.mu.Unlock()

	if err := s.checkout.gateway.CancelPayment(ctx, referenceID, cancellationToken); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(model.OutcomeCanceled, referenceID)
	s.publishLocked()
	return nil
}

// ApplySnapshot implements PollSink. Snapshots for a superseded ticket are
// discarded at apply time.
func (s *Session) ApplySnapshot(trackingID string, snapshot *model.PaymentStatusSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.attempt == nil || s.activeTicket != trackingID {
		return
	}

	s.attempt.Adopt(snapshot)

	switch snapshot.Status {
	case model.StatusRequiresAction:
		if snapshot.Transaction != nil {
			s.resolved = ResolveInstructions(s.checkout.instructionCfg, s.channel.Code, snapshot.Transaction.Actions)
		}
	case model.StatusManualReview:
		s.manualReview = true
		if !s.reviewNotified {
			s.reviewNotified = true
			notification.NotifyManualReview(s.id, trackingID)
		}
	case model.StatusSucceeded:
		s.finishLocked(model.OutcomeSucceeded, s.attempt.ReferenceID)
	case model.StatusCanceled:
		s.finishLocked(model.OutcomeCanceled, s.attempt.ReferenceID)
	case model.StatusExpired:
		s.finishLocked(model.OutcomeExpired, s.attempt.ReferenceID)
	case model.StatusFailed:
		s.step = model.StepPayment
		s.activeTicket = ""
		s.message = snapshot.Message
		if s.message == "" {
			s.message = "payment failed, please try another channel"
		}
	case model.StatusInvalid:
		fieldErrs := ClassifyFieldErrors(snapshot.Errors)
		s.routeFieldErrorsLocked(fieldErrs, snapshot.Message)
		s.activeTicket = ""
	}

	s.publishLocked()
}

// TicketLost implements PollSink: the gateway no longer recognizes the
// ticket, so the attempt is abandoned and the user must submit again.
func (s *Session) TicketLost(trackingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.activeTicket != trackingID {
		return
	}

	s.attempt = nil
	s.activeTicket = ""
	s.step = model.StepPayment
	s.message = "payment session expired, please submit again"
	s.publishLocked()
}

// Subscribe registers a state-change listener. Every transition publishes a
// snapshot; slow listeners miss intermediate snapshots but never block the
// state machine. The channel is closed when the session closes.
func (s *Session) Subscribe() <-chan model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan model.SessionSnapshot, subscriberBuffer)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Snapshot returns the current read-only view of the session.
func (s *Session) Snapshot() model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close tears the session down: the active poller is cancelled (no pending
// timer fires and no in-flight response is applied afterwards) and all
// subscriber channels are closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopPollingLocked()
	s.activeTicket = ""
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}

func (s *Session) startPollerLocked(trackingID string) {
	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancelPoll = cancel

	poller, err := NewStatusPoller(s.checkout.gateway, trackingID, s.checkout.pollerCfg)
	if err != nil {
		cancel()
		s.cancelPoll = nil
		s.log.WithError(err).Error("poller construction failed")
		return
	}

	go func() {
		if err := poller.Run(pollCtx, s); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Error("status poller stopped unexpectedly")
		}
	}()
}

func (s *Session) stopPollingLocked() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
}

func (s *Session) finishLocked(outcome model.CheckoutOutcome, referenceID string) {
	s.stopPollingLocked()
	s.step = model.StepSuccess
	s.outcome = outcome
	s.referenceID = referenceID
	s.activeTicket = ""
	s.message = ""
}

// failSubmission routes a one-shot call failure back to the step that issued
// it, with a banner-level message.
func (s *Session) failSubmission(step model.CheckoutStep, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.WithError(err).Warn("payment submission failed")
	s.step = step
	s.message = message
	s.publishLocked()
}

// routeFieldErrors classifies an upstream validation payload and returns the
// session to the implicated step: info when customer fields are hit, payment
// otherwise (including the empty/ambiguous case).
func (s *Session) routeFieldErrors(fieldErrs map[string]interface{}, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeFieldErrorsLocked(ClassifyFieldErrors(fieldErrs), message)
	s.publishLocked()
}

func (s *Session) routeFieldErrorsLocked(fieldErrs model.FieldErrorSet, message string) {
	s.fieldErrors = &fieldErrs
	s.message = message
	if fieldErrs.HasCustomerErr {
		s.step = model.StepInfo
	} else {
		s.step = model.StepPayment
	}
}

func (s *Session) snapshotLocked() model.SessionSnapshot {
	snap := model.SessionSnapshot{
		SessionID:    s.id,
		Step:         s.step,
		Outcome:      s.outcome,
		ReferenceID:  s.referenceID,
		Channel:      s.channel.Code,
		Subtotal:     s.subtotal,
		Discount:     s.discount,
		Total:        s.total,
		Message:      s.message,
		FieldErrors:  s.fieldErrors,
		Instructions: s.resolved,
		ManualReview: s.manualReview,
		At:           time.Now(),
	}
	return snap
}

func (s *Session) publishLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Listener is behind; it will catch up on the next snapshot.
		}
	}
}

func outcomeForStatus(status model.PaymentStatus) model.CheckoutOutcome {
	switch status {
	case model.StatusSucceeded:
		return model.OutcomeSucceeded
	case model.StatusCanceled:
		return model.OutcomeCanceled
	case model.StatusExpired:
		return model.OutcomeExpired
	}
	return model.OutcomeFailed
}

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
	"time"

	"github.com/agusprema/gamehostify-checkout/config"
	"github.com/agusprema/gamehostify-checkout/internal/apierror"
	"github.com/agusprema/gamehostify-checkout/model"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// StatusFetcher is the slice of the gateway the poller needs.
type StatusFetcher interface {
	PaymentStatus(ctx context.Context, trackingID string) (*model.PaymentStatusSnapshot, error)
}

// PollSink receives poll outcomes. ApplySnapshot is called once per
// successfully fetched snapshot, always tagged with the ticket it belongs to
// so a superseded attempt can be ignored at apply time. TicketLost fires when
// the gateway reports the ticket invalid or expired.
type PollSink interface {
	ApplySnapshot(trackingID string, snapshot *model.PaymentStatusSnapshot)
	TicketLost(trackingID string)
}

// StatusPoller drives the sequential status loop for one tracking ticket:
// fetch, decide, wait, fetch again. Exactly one fetch is in flight at any
// time. The wait before poll n is min(base * 2^n, max); the exponent resets
// only by constructing a new poller for a new ticket. There is no retry
// ceiling: the loop runs until a terminal branch or context cancellation.
type StatusPoller struct {
	fetcher    StatusFetcher
	trackingID string
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        *logrus.Entry
}

// NewStatusPoller builds a poller for the given ticket. The tracking id is
// required and non-empty.
func NewStatusPoller(fetcher StatusFetcher, trackingID string, cfg config.PollerConfig) (*StatusPoller, error) {
	if trackingID == "" {
		return nil, apierror.NewAPIError(apierror.ErrPrecondition, "tracking id is required", nil)
	}
	base := time.Duration(cfg.BaseDelayMs) * time.Millisecond
	if base <= 0 {
		base = config.DEFAULT_POLL_BASE_DELAY_MS * time.Millisecond
	}
	max := time.Duration(cfg.MaxDelayMs) * time.Millisecond
	if max < base {
		max = base
	}

	return &StatusPoller{
		fetcher:    fetcher,
		trackingID: trackingID,
		baseDelay:  base,
		maxDelay:   max,
		log:        logrus.WithField("tracking_id", trackingID),
	}, nil
}

// Run executes the poll loop until a terminal condition or ctx cancellation.
// The first fetch happens immediately. Transport failures are transient and
// only stretch the schedule; a lost ticket stops the loop through
// sink.TicketLost. Run never applies a snapshot after ctx is cancelled.
func (p *StatusPoller) Run(ctx context.Context, sink PollSink) error {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = p.baseDelay
	schedule.MaxInterval = p.maxDelay
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.MaxElapsedTime = 0 // no retry ceiling
	schedule.Reset()

	for {
		snapshot, err := p.fetcher.PaymentStatus(ctx, p.trackingID)
		if ctx.Err() != nil {
			// Teardown raced the fetch; discard whatever came back.
			return ctx.Err()
		}
		if err != nil {
			var apiErr apierror.APIError
			if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrTicketExpired {
				p.log.Info("tracking ticket lost, stopping poll loop")
				sink.TicketLost(p.trackingID)
				return nil
			}
			// Transient: transport fault, non-JSON body, unrecognized shape.
			p.log.WithError(err).Debug("status fetch failed, will retry")
		} else {
			sink.ApplySnapshot(p.trackingID, snapshot)

			switch snapshot.Status {
			case model.StatusManualReview:
				p.log.Info("payment parked for manual review, stopping poll loop")
				return nil
			case model.StatusSucceeded, model.StatusInvalid, model.StatusFailed,
				model.StatusCanceled, model.StatusExpired:
				p.log.WithField("status", snapshot.Status).Info("terminal payment status reached")
				return nil
			}
			// queued, PROCESSING, REQUIRES_ACTION and anything unrecognized
			// keep the loop alive.
		}

		if err := p.wait(ctx, schedule.NextBackOff()); err != nil {
			return err
		}
	}
}

// wait sleeps for the given delay, honoring cancellation. The timer is
// stopped on teardown so nothing fires after the session is gone.
func (p *StatusPoller) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

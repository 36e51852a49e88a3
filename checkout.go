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
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/agusprema/gamehostify-checkout/config"
	"github.com/agusprema/gamehostify-checkout/internal/apierror"
	"github.com/agusprema/gamehostify-checkout/internal/cache"
	"github.com/agusprema/gamehostify-checkout/internal/request"
	"github.com/agusprema/gamehostify-checkout/model"
	"github.com/pkg/errors"
)

const (
	catalogCacheKey = "checkout:instruction_catalog"
	catalogCacheTTL = 12 * time.Hour
)

// Checkout composes the collaborators a session needs: the gateway client,
// the cart provider, the token cache, the instruction catalog, and the poll
// schedule. One Checkout serves many sessions; the catalog is loaded once
// and shared by reference.
type Checkout struct {
	gateway        *Gateway
	carts          CartProvider
	tokens         *CartTokenCache
	instructionCfg *model.InstructionConfig
	pollerCfg      config.PollerConfig
}

// NewCheckout builds a Checkout from the loaded configuration.
func NewCheckout() (*Checkout, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	gateway := NewGateway(cfg.Gateway)

	ca, err := cache.NewCache()
	if err != nil {
		return nil, err
	}

	catalog, err := LoadInstructionConfig(context.Background(), cfg.Catalog, ca)
	if err != nil {
		return nil, err
	}

	return &Checkout{
		gateway:        gateway,
		carts:          gateway,
		tokens:         NewCartTokenCache(gateway, ca),
		instructionCfg: catalog,
		pollerCfg:      cfg.Poller,
	}, nil
}

// NewSession starts a fresh checkout session in the loading step.
// authenticated marks sessions backed by a signed-in identity; those do not
// inline customer data on invoice creation.
func (c *Checkout) NewSession(authenticated bool) *Session {
	return newSession(c, authenticated)
}

// ResumeSession reconstructs a session for a shopper redirected back from an
// external gateway page with an already-known terminal status. The session
// lands directly on the success step, never visiting info or payment.
func (c *Checkout) ResumeSession(referenceID string, status model.PaymentStatus) (*Session, error) {
	s := newSession(c, false)
	if err := s.Resume(referenceID, status); err != nil {
		return nil, err
	}
	return s, nil
}

// InstructionConfig exposes the shared, read-only catalog.
func (c *Checkout) InstructionConfig() *model.InstructionConfig {
	return c.instructionCfg
}

// Tokens exposes the injectable cart-token cache, mainly so operators can
// reset a stuck guest token.
func (c *Checkout) Tokens() *CartTokenCache {
	return c.tokens
}

// ResolveInstructions renders instructions against the shared catalog.
func (c *Checkout) ResolveInstructions(channelCode string, actions []model.PaymentAction) *model.ResolvedInstructions {
	return ResolveInstructions(c.instructionCfg, channelCode, actions)
}

// LoadInstructionConfig loads the static instruction catalog from the
// configured file or URL, consulting the cache before going to the network.
// The catalog is immutable once loaded.
func LoadInstructionConfig(ctx context.Context, cfg config.CatalogConfig, ca cache.Cache) (*model.InstructionConfig, error) {
	if cfg.File != "" {
		raw, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, errors.Wrap(err, "reading instruction catalog file")
		}
		var catalog model.InstructionConfig
		if err := json.Unmarshal(raw, &catalog); err != nil {
			return nil, errors.Wrap(err, "parsing instruction catalog file")
		}
		return &catalog, nil
	}

	if cfg.Url == "" {
		return nil, apierror.NewAPIError(apierror.ErrPrecondition, "no instruction catalog source configured", nil)
	}

	var cached model.InstructionConfig
	if ca != nil {
		if err := ca.Get(ctx, catalogCacheKey, &cached); err == nil && catalogLoaded(&cached) {
			return &cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Url, nil)
	if err != nil {
		return nil, err
	}

	var catalog model.InstructionConfig
	resp, err := request.Call(req, &catalog)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransport, "failed to fetch instruction catalog", errors.Wrap(err, "catalog fetch"))
	}
	if resp.StatusCode >= 400 {
		return nil, apierror.NewAPIError(apierror.ErrUnexpectedResponse, "instruction catalog unavailable", resp.Status)
	}

	if ca != nil {
		if err := ca.Set(ctx, catalogCacheKey, catalog, catalogCacheTTL); err != nil {
			// A cold cache on the next boot is acceptable.
			_ = err
		}
	}
	return &catalog, nil
}

func catalogLoaded(cfg *model.InstructionConfig) bool {
	return len(cfg.Banks) > 0 || len(cfg.EWallets) > 0 || len(cfg.QRIS) > 0 ||
		len(cfg.RetailOutlets) > 0 || len(cfg.DirectDebits) > 0 ||
		len(cfg.Paylaters) > 0 || len(cfg.Cards) > 0
}

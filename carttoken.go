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
	"time"

	"github.com/agusprema/gamehostify-checkout/internal/cache"
)

const (
	cartTokenKeyPrefix = "checkout:cart_token:"
	cartTokenTTL       = 24 * time.Hour
)

// CartTokenCache owns the guest cart-token lifecycle. It is an explicit,
// injectable object rather than process-wide state: the composing Checkout
// constructs one and sessions share it. Reset drops a cached token so the
// next Ensure mints a fresh one.
type CartTokenCache struct {
	carts CartProvider
	cache cache.Cache
}

func NewCartTokenCache(carts CartProvider, ca cache.Cache) *CartTokenCache {
	return &CartTokenCache{carts: carts, cache: ca}
}

// Ensure returns a non-empty cart token for the owner, minting and caching
// one when absent. A failure here is a local precondition failure for
// payment submission: the caller must not attempt invoice creation.
func (t *CartTokenCache) Ensure(ctx context.Context, ownerID string) (string, error) {
	key := cartTokenKeyPrefix + ownerID

	var token string
	if err := t.cache.Get(ctx, key, &token); err == nil && token != "" {
		return token, nil
	}

	token, err := t.carts.IssueToken(ctx)
	if err != nil {
		return "", err
	}

	if err := t.cache.Set(ctx, key, token, cartTokenTTL); err != nil {
		// The token is still valid even if caching it failed.
		return token, nil
	}
	return token, nil
}

// Reset drops the cached token for the owner.
func (t *CartTokenCache) Reset(ctx context.Context, ownerID string) error {
	return t.cache.Delete(ctx, cartTokenKeyPrefix+ownerID)
}

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
package api

import (
	"sync"

	"github.com/agusprema/gamehostify-checkout/api/middleware"
	"github.com/agusprema/gamehostify-checkout/config"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	checkout "github.com/agusprema/gamehostify-checkout"
)

// Api exposes checkout sessions over HTTP. Sessions live in memory for
// their own lifetime; the registry maps session ids to live state machines.
type Api struct {
	checkout *checkout.Checkout
	router   *gin.Engine

	mu       sync.RWMutex
	sessions map[string]*checkout.Session
}

func (a *Api) Router() *gin.Engine {
	router := a.router
	router.POST("/sessions", a.CreateSession)
	router.GET("/sessions/:id", a.GetSession)
	router.DELETE("/sessions/:id", a.CloseSession)

	router.POST("/sessions/:id/customer", a.SubmitCustomerInfo)
	router.POST("/sessions/:id/channel", a.SelectChannel)
	router.POST("/sessions/:id/coupon", a.ApplyCoupon)
	router.POST("/sessions/:id/payment", a.SubmitPayment)
	router.POST("/sessions/:id/payment/cancel", a.CancelPayment)
	router.GET("/sessions/:id/instructions", a.GetInstructions)

	router.POST("/instructions/:channel", a.ResolveInstructions)
	return a.router
}

func NewAPI(ck *checkout.Checkout) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{
		checkout: ck,
		router:   r,
		sessions: make(map[string]*checkout.Session),
	}
}

func (a *Api) register(s *checkout.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[s.ID()] = s
}

func (a *Api) session(id string) (*checkout.Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[id]
	return s, ok
}

func (a *Api) drop(id string) (*checkout.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[id]
	if ok {
		delete(a.sessions, id)
	}
	return s, ok
}

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
	"net/http"

	model2 "github.com/agusprema/gamehostify-checkout/api/model"
	"github.com/agusprema/gamehostify-checkout/internal/apierror"
	"github.com/agusprema/gamehostify-checkout/model"
	"github.com/gin-gonic/gin"
)

func (a *Api) CreateSession(c *gin.Context) {
	var newSession model2.CreateSession
	if err := c.ShouldBindJSON(&newSession); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newSession.ValidateCreateSession(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if newSession.IsResume() {
		s, err := a.checkout.ResumeSession(newSession.ReferenceID, model.PaymentStatus(newSession.Status))
		if err != nil {
			c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		a.register(s)
		c.JSON(http.StatusCreated, s.Snapshot())
		return
	}

	s := a.checkout.NewSession(newSession.Authenticated)
	a.register(s)

	if err := s.Load(c.Request.Context()); err != nil {
		// The session stays registered in loading; the client may retry.
		c.JSON(apierror.MapErrorToHTTPStatus(err), s.Snapshot())
		return
	}

	c.JSON(http.StatusCreated, s.Snapshot())
}

func (a *Api) GetSession(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Api) CloseSession(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.drop(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	s.Close()
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (a *Api) SubmitCustomerInfo(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var info model2.SubmitCustomerInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := info.ValidateSubmitCustomerInfo(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := s.SubmitCustomerInfo(info.ToCustomerInfo()); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Api) SelectChannel(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var sel model2.SelectChannel
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := sel.ValidateSelectChannel(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := s.SelectChannel(sel.Code, sel.Properties); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Api) ApplyCoupon(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var coupon model2.ApplyCoupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := coupon.ValidateApplyCoupon(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := s.ApplyCoupon(coupon.Code); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Api) SubmitPayment(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if err := s.SubmitPayment(c.Request.Context()); err != nil {
		// The snapshot carries the routed step and any field errors.
		c.JSON(apierror.MapErrorToHTTPStatus(err), s.Snapshot())
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Api) CancelPayment(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	if err := s.CancelPayment(c.Request.Context()); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Api) GetInstructions(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	s, ok := a.session(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	snap := s.Snapshot()
	if snap.Instructions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no instructions available"})
		return
	}

	c.JSON(http.StatusOK, snap.Instructions)
}

// ResolveInstructions renders the instruction document for a channel from
// caller-supplied actions, outside any session. Operational debugging aid.
func (a *Api) ResolveInstructions(c *gin.Context) {
	channel, passed := c.Params.Get("channel")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required. pass it in the route /:channel"})
		return
	}

	var body model2.ResolveInstructions
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resolved := a.checkout.ResolveInstructions(channel, body.Actions)
	if resolved == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no instructions available for channel"})
		return
	}

	c.JSON(http.StatusOK, resolved)
}

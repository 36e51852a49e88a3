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

package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/agusprema/gamehostify-checkout/model"
)

// CreateSession opens a checkout session. When ReferenceID and Status are
// both present the session resumes a redirect return instead of starting
// fresh.
type CreateSession struct {
	Authenticated bool   `json:"authenticated"`
	ReferenceID   string `json:"reference_id"`
	Status        string `json:"status"`
}

func (c *CreateSession) IsResume() bool {
	return c.ReferenceID != "" && c.Status != ""
}

func (c *CreateSession) ValidateCreateSession() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ReferenceID, validation.When(c.Status != "", validation.Required)),
		validation.Field(&c.Status, validation.When(c.ReferenceID != "", validation.Required)),
	)
}

type SubmitCustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

func (s *SubmitCustomerInfo) ValidateSubmitCustomerInfo() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Email, validation.Required, is.Email),
		validation.Field(&s.Phone, validation.Required),
	)
}

func (s *SubmitCustomerInfo) ToCustomerInfo() model.CustomerInfo {
	return model.CustomerInfo{Name: s.Name, Email: s.Email, Phone: s.Phone}
}

type SelectChannel struct {
	Code       string                 `json:"code"`
	Properties map[string]interface{} `json:"properties"`
}

func (s *SelectChannel) ValidateSelectChannel() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Code, validation.Required),
	)
}

type ApplyCoupon struct {
	Code string `json:"code"`
}

func (a *ApplyCoupon) ValidateApplyCoupon() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Code, validation.Required),
	)
}

// ResolveInstructions renders a channel's instruction document from gateway
// actions, mainly for operational debugging.
type ResolveInstructions struct {
	Actions []model.PaymentAction `json:"actions"`
}

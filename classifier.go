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
	"strings"

	"github.com/agusprema/gamehostify-checkout/model"
)

// customerFieldAliases maps upstream validation field paths to logical
// customer-info fields. Any path not in this table is channel-scoped.
var customerFieldAliases = map[string]model.CustomerField{
	"name":               model.CustomerFieldName,
	"full_name":          model.CustomerFieldName,
	"customer.name":      model.CustomerFieldName,
	"customer.full_name": model.CustomerFieldName,

	"email":          model.CustomerFieldEmail,
	"customer.email": model.CustomerFieldEmail,

	"phone":                 model.CustomerFieldPhone,
	"phone_number":          model.CustomerFieldPhone,
	"customer.phone":        model.CustomerFieldPhone,
	"customer.phone_number": model.CustomerFieldPhone,
}

// ClassifyFieldErrors partitions an upstream field-keyed validation payload
// into customer-scoped and channel-scoped groups. Values may be a single
// message or a list of messages; only the first message per field is kept.
// Channel-scoped fields keep their verbatim (possibly dotted) path so the
// caller can target nested channel-property inputs. Every input field lands
// in exactly one group.
func ClassifyFieldErrors(errs map[string]interface{}) model.FieldErrorSet {
	out := model.FieldErrorSet{
		Customer: make(map[model.CustomerField]string),
		Channel:  make(map[string]string),
	}

	for field, raw := range errs {
		msg := firstMessage(raw)

		logical, ok := customerFieldAliases[strings.ToLower(strings.TrimSpace(field))]
		if ok {
			if _, exists := out.Customer[logical]; !exists {
				out.Customer[logical] = msg
			}
			out.HasCustomerErr = true
			continue
		}

		out.Channel[field] = msg
		out.HasChannelErr = true
	}

	return out
}

// firstMessage extracts the first human-readable message from an upstream
// error value, which may arrive as a string, a string list, or a decoded
// JSON array.
func firstMessage(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}

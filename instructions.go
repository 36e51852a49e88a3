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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agusprema/gamehostify-checkout/model"
)

// uriScheme matches values that carry an explicit scheme (https://..., app
// deeplinks like gojek://...). Only those get wrapped as links.
var uriScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// ResolveInstructions renders the payment-instruction document for the
// selected channel from the static catalog and the gateway's action records.
// Categories are evaluated in fixed precedence: bank, e-wallet, QRIS, retail
// outlet, direct debit, paylater, card. Returns nil when the channel code is
// present in no category.
//
// Resolution is pure: identical inputs yield structurally identical output.
func ResolveInstructions(cfg *model.InstructionConfig, channelCode string, actions []model.PaymentAction) *model.ResolvedInstructions {
	if cfg == nil {
		return nil
	}
	code := strings.TrimSpace(channelCode)
	if code == "" {
		return nil
	}

	for _, bank := range cfg.Banks {
		if strings.EqualFold(bank.ID, code) {
			return resolveBank(cfg, bank, actions)
		}
	}
	for _, ew := range cfg.EWallets {
		if strings.EqualFold(ew.ID, code) {
			return resolveEWallet(cfg, ew, actions)
		}
	}
	for _, q := range cfg.QRIS {
		if strings.EqualFold(q.ID, code) {
			return resolveQRIS(q, actions)
		}
	}
	for _, ro := range cfg.RetailOutlets {
		if strings.EqualFold(ro.ID, code) {
			return resolveRetailOutlet(cfg, ro, actions)
		}
	}
	for _, dd := range cfg.DirectDebits {
		if strings.EqualFold(dd.ID, code) {
			return resolveDirectDebit(dd, actions)
		}
	}
	for _, pl := range cfg.Paylaters {
		if strings.EqualFold(pl.ID, code) {
			return resolvePaylater(pl, actions)
		}
	}
	for _, card := range cfg.Cards {
		if strings.EqualFold(card.ID, code) {
			return resolveCard(card, actions)
		}
	}

	return nil
}

func resolveBank(cfg *model.InstructionConfig, bank model.BankInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	expiry := bank.ExpiryMinutes
	if expiry == 0 {
		expiry = cfg.Defaults.ExpiryMinutes
	}

	placeholders := map[string]string{
		"bank_name":          bank.Name,
		"va_number":          presentedValue(actions, model.DescriptorVANumber),
		"atm_menu_path":      bank.ATMMenuPath,
		"ibanking_menu_path": bank.IBankingMenuPath,
		"mbanking_menu_path": bank.MBankingMenuPath,
		"expiry_minutes":     strconv.Itoa(expiry),
	}

	doc := &model.ResolvedInstructions{Title: bank.Name}
	for _, sub := range bank.Channels {
		key := strings.ToUpper(strings.TrimSpace(sub))
		steps, ok := bank.Templates[key]
		if !ok {
			continue
		}
		doc.Sections = append(doc.Sections, model.ResolvedSection{
			Key:   key,
			Title: fmt.Sprintf("%s %s", subChannelLabel(key), bank.Name),
			Steps: substituteSteps(steps, placeholders),
		})
	}

	doc.Notes = buildNotes(bank.ExpiryNote, bank.Hint, placeholders)
	return doc
}

func resolveEWallet(cfg *model.InstructionConfig, ew model.EWalletInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	expiry := ew.ExpiryMinutes
	if expiry == 0 {
		expiry = cfg.Defaults.ExpiryMinutes
	}

	placeholders := map[string]string{
		"ewallet_name":     ew.Name,
		"ewallet_deeplink": redirectValue(actions),
		"expiry_minutes":   strconv.Itoa(expiry),
	}

	return &model.ResolvedInstructions{
		Title: ew.Name,
		Sections: []model.ResolvedSection{{
			Key:   model.TemplateEWallet,
			Title: ew.Name,
			Steps: substituteSteps(ew.Steps, placeholders),
		}},
		Notes: buildNotes(ew.ExpiryNote, ew.Hint, placeholders),
	}
}

func resolveQRIS(q model.QRISInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	placeholders := map[string]string{
		"qris_string": presentedValue(actions, model.DescriptorQRString),
	}

	return &model.ResolvedInstructions{
		Title: q.Name,
		Sections: []model.ResolvedSection{{
			Key:   model.TemplateQRIS,
			Title: q.Name,
			Steps: substituteSteps(q.Steps, placeholders),
		}},
		Notes: buildNotes(q.ExpiryNote, q.Hint, placeholders),
	}
}

func resolveRetailOutlet(cfg *model.InstructionConfig, ro model.RetailOutletInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	expiry := ro.ExpiryDays
	if expiry == 0 {
		expiry = cfg.Defaults.ExpiryDays
	}

	placeholders := map[string]string{
		"retail_outlet_name": ro.Name,
		"payment_code":       presentedValue(actions, model.DescriptorPaymentCode),
		"expiry_days":        strconv.Itoa(expiry),
	}

	return &model.ResolvedInstructions{
		Title: ro.Name,
		Sections: []model.ResolvedSection{{
			Key:   model.TemplateRetailOutlet,
			Title: ro.Name,
			Steps: substituteSteps(ro.Steps, placeholders),
		}},
		Notes: buildNotes(ro.ExpiryNote, ro.Hint, placeholders),
	}
}

func resolveDirectDebit(dd model.DirectDebitInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	placeholders := map[string]string{
		"bank_name":    dd.Name,
		"redirect_url": redirectValue(actions),
	}

	return &model.ResolvedInstructions{
		Title: dd.Name,
		Sections: []model.ResolvedSection{{
			Key:   model.TemplateDirectDebit,
			Title: dd.Name,
			Steps: substituteSteps(dd.Steps, placeholders),
		}},
		Notes: buildNotes("", dd.Hint, placeholders),
	}
}

func resolvePaylater(pl model.PaylaterInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	placeholders := map[string]string{
		"paylater_name": pl.Name,
		"redirect_url":  redirectValue(actions),
	}

	return &model.ResolvedInstructions{
		Title: pl.Name,
		Sections: []model.ResolvedSection{{
			Key:   model.TemplatePaylater,
			Title: pl.Name,
			Steps: substituteSteps(pl.Steps, placeholders),
		}},
		Notes: buildNotes("", pl.Hint, placeholders),
	}
}

func resolveCard(card model.CardInstruction, actions []model.PaymentAction) *model.ResolvedInstructions {
	const cardTitle = "Kartu Kredit/Debit"

	placeholders := map[string]string{
		"three_ds_url": redirectValue(actions),
	}

	return &model.ResolvedInstructions{
		Title: cardTitle,
		Sections: []model.ResolvedSection{{
			Key:   model.TemplateCard,
			Title: cardTitle,
			Steps: substituteSteps(card.Steps, placeholders),
		}},
		Notes: buildNotes("", card.Hint, placeholders),
	}
}

// subChannelLabel translates a bank sub-channel key into its display label.
func subChannelLabel(key string) string {
	switch key {
	case model.TemplateATM:
		return "ATM"
	case model.TemplateIBanking:
		return "Internet Banking"
	case model.TemplateMBanking:
		return "Mobile Banking"
	}
	return key
}

// presentedValue returns the value of the first PRESENT_TO_CUSTOMER action
// with the given descriptor.
func presentedValue(actions []model.PaymentAction, descriptor string) string {
	for _, a := range actions {
		if a.Type == model.ActionPresentToCustomer && a.Descriptor == descriptor {
			return a.Value
		}
	}
	return ""
}

// redirectValue returns the first redirect action's value, wrapped as a link
// when the raw value carries a URI scheme. Deeplinks take priority over web
// URLs so the wallet app opens directly when installed.
func redirectValue(actions []model.PaymentAction) string {
	var web, deeplink string
	for _, a := range actions {
		if !a.IsRedirect() {
			continue
		}
		switch a.Descriptor {
		case model.DescriptorDeeplinkURL:
			if deeplink == "" {
				deeplink = a.Value
			}
		case model.DescriptorWebURL:
			if web == "" {
				web = a.Value
			}
		}
	}
	if deeplink != "" {
		return linkify(deeplink)
	}
	return linkify(web)
}

// linkify wraps a value into a minimal clickable-link form when it looks like
// a URI; anything else passes through unchanged.
func linkify(value string) string {
	if uriScheme.MatchString(value) {
		return fmt.Sprintf(`<a href="%s">%s</a>`, value, value)
	}
	return value
}

// substituteSteps replaces every {{token}} occurrence known to the
// placeholder map in every step. Unknown tokens stay untouched (fail-open).
func substituteSteps(steps []model.InstructionStep, placeholders map[string]string) []model.InstructionStep {
	out := make([]model.InstructionStep, len(steps))
	for i, step := range steps {
		out[i] = model.InstructionStep{Step: step.Step, Text: substitute(step.Text, placeholders)}
	}
	return out
}

func substitute(text string, placeholders map[string]string) string {
	for token, value := range placeholders {
		text = strings.ReplaceAll(text, "{{"+token+"}}", value)
	}
	return text
}

// buildNotes keeps note ordering stable: expiry note first, then the
// category hint. Both are templated.
func buildNotes(expiryNote, hint string, placeholders map[string]string) []string {
	var notes []string
	if expiryNote != "" {
		notes = append(notes, substitute(expiryNote, placeholders))
	}
	if hint != "" {
		notes = append(notes, substitute(hint, placeholders))
	}
	return notes
}

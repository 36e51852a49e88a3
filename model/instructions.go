package model

// Template keys. Banks render one section per supported sub-channel; every
// other category renders a single section under its own key.
const (
	TemplateATM          = "ATM"
	TemplateIBanking     = "IBANKING"
	TemplateMBanking     = "MBANKING"
	TemplateEWallet      = "EWALLET"
	TemplateQRIS         = "QRIS"
	TemplateRetailOutlet = "RETAIL_OUTLET"
	TemplateDirectDebit  = "DIRECT_DEBIT"
	TemplatePaylater     = "PAYLATER"
	TemplateCard         = "CARD"
)

// InstructionStep is one numbered, templated step. Text may contain
// {{token}} placeholders substituted at resolution time.
type InstructionStep struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// BankInstruction describes a virtual-account bank entry. Channels lists the
// sub-channels the bank supports (ATM, IBANKING, MBANKING); Templates holds
// the step list for each of them.
type BankInstruction struct {
	ID               string                       `json:"id"`
	Name             string                       `json:"name"`
	Channels         []string                     `json:"channels"`
	ATMMenuPath      string                       `json:"atm_menu_path,omitempty"`
	IBankingMenuPath string                       `json:"ibanking_menu_path,omitempty"`
	MBankingMenuPath string                       `json:"mbanking_menu_path,omitempty"`
	Templates        map[string][]InstructionStep `json:"templates"`
	ExpiryMinutes    int                          `json:"expiry_minutes,omitempty"`
	ExpiryNote       string                       `json:"expiry_note,omitempty"`
	Hint             string                       `json:"hint,omitempty"`
}

type EWalletInstruction struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Steps         []InstructionStep `json:"steps"`
	ExpiryMinutes int               `json:"expiry_minutes,omitempty"`
	ExpiryNote    string            `json:"expiry_note,omitempty"`
	Hint          string            `json:"hint,omitempty"`
}

type QRISInstruction struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Steps      []InstructionStep `json:"steps"`
	ExpiryNote string            `json:"expiry_note,omitempty"`
	Hint       string            `json:"hint,omitempty"`
}

type RetailOutletInstruction struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Steps      []InstructionStep `json:"steps"`
	ExpiryDays int               `json:"expiry_days,omitempty"`
	ExpiryNote string            `json:"expiry_note,omitempty"`
	Hint       string            `json:"hint,omitempty"`
}

type DirectDebitInstruction struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Steps []InstructionStep `json:"steps"`
	Hint  string            `json:"hint,omitempty"`
}

type PaylaterInstruction struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Steps []InstructionStep `json:"steps"`
	Hint  string            `json:"hint,omitempty"`
}

type CardInstruction struct {
	ID    string            `json:"id"`
	Steps []InstructionStep `json:"steps"`
	Hint  string            `json:"hint,omitempty"`
}

// InstructionDefaults supplies fallback expiry values when an entry omits
// its own.
type InstructionDefaults struct {
	ExpiryMinutes int `json:"expiry_minutes"`
	ExpiryDays    int `json:"expiry_days"`
}

// InstructionConfig is the static payment-instruction catalog. Loaded once,
// shared by reference, never mutated.
type InstructionConfig struct {
	Defaults      InstructionDefaults       `json:"defaults"`
	Banks         []BankInstruction         `json:"banks"`
	EWallets      []EWalletInstruction      `json:"ewallets"`
	QRIS          []QRISInstruction         `json:"qris"`
	RetailOutlets []RetailOutletInstruction `json:"retail_outlets"`
	DirectDebits  []DirectDebitInstruction  `json:"direct_debits"`
	Paylaters     []PaylaterInstruction     `json:"paylaters"`
	Cards         []CardInstruction         `json:"cards"`
}

type ResolvedSection struct {
	Key   string            `json:"key"`
	Title string            `json:"title"`
	Steps []InstructionStep `json:"steps"`
}

// ResolvedInstructions is the read-only, fully substituted instruction
// document handed to the presentation layer.
type ResolvedInstructions struct {
	Title    string            `json:"title"`
	Sections []ResolvedSection `json:"sections"`
	Notes    []string          `json:"notes,omitempty"`
}

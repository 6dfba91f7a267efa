package domain

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	MethodBTC    PaymentMethod = "BTC"
	MethodMomo   PaymentMethod = "MOMO"
	MethodWU     PaymentMethod = "WU"
	MethodBank   PaymentMethod = "BANK"
	MethodPayPal PaymentMethod = "PAYPAL"
	MethodManual PaymentMethod = "MANUAL"
)

// NotSetMarker is rendered for configuration values the operator has not
// provisioned yet, so client UIs can flag incomplete setup instead of
// dropping the field.
const NotSetMarker = "Not set"

type InstructionField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Instructions struct {
	Lines  []string           `json:"lines"`
	Fields []InstructionField `json:"fields"`
	QRURL  string             `json:"qr_url,omitempty"`
}

// SettlementConfig carries the operator's receiving details per method family.
type SettlementConfig struct {
	BankName          string `json:"bank_name,omitempty"`
	BankAccountName   string `json:"bank_account_name,omitempty"`
	BankAccountNumber string `json:"bank_account_number,omitempty"`
	BankSwiftCode     string `json:"bank_swift_code,omitempty"`

	MomoProvider    string `json:"momo_provider,omitempty"`
	MomoNumber      string `json:"momo_number,omitempty"`
	MomoAccountName string `json:"momo_account_name,omitempty"`

	BTCAddress string `json:"btc_address,omitempty"`
	BTCNetwork string `json:"btc_network,omitempty"`

	WireBeneficiary string `json:"wire_beneficiary,omitempty"`
	WireCity        string `json:"wire_city,omitempty"`
	WireCountry     string `json:"wire_country,omitempty"`

	PayPalEmail  string `json:"paypal_email,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case MethodBTC:
		return MethodBTC, nil
	case MethodMomo:
		return MethodMomo, nil
	case MethodWU:
		return MethodWU, nil
	case MethodBank:
		return MethodBank, nil
	case MethodPayPal:
		return MethodPayPal, nil
	case MethodManual:
		return MethodManual, nil
	default:
		return "", fmt.Errorf("%w: payment method must be one of BTC, MOMO, WU, BANK", ErrInvalidInput)
	}
}

// MissingFields lists the settlement fields a method requires but the config
// does not provide. An empty result means the method is fully configured.
func (c SettlementConfig) MissingFields(method PaymentMethod) []string {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	switch method {
	case MethodBank:
		require("bank_name", c.BankName)
		require("bank_account_name", c.BankAccountName)
		require("bank_account_number", c.BankAccountNumber)
	case MethodMomo:
		require("momo_provider", c.MomoProvider)
		require("momo_number", c.MomoNumber)
		require("momo_account_name", c.MomoAccountName)
	case MethodBTC:
		require("btc_address", c.BTCAddress)
	case MethodWU:
		require("wire_beneficiary", c.WireBeneficiary)
		require("wire_city", c.WireCity)
		require("wire_country", c.WireCountry)
	}
	return missing
}

// ResolveInstructions renders human-readable settlement instructions for one
// payment. Pure function of its inputs: the config snapshot fills labeled
// fields, unset values render as the NotSetMarker, and the reference id is
// always embedded as the code the payer must cite.
func ResolveInstructions(cfg SettlementConfig, method PaymentMethod, referenceID string, totalChargeCents int64) Instructions {
	amount := FormatCents(totalChargeCents)
	out := Instructions{
		Fields: []InstructionField{
			{Label: "Amount", Value: amount},
			{Label: "Reference", Value: referenceID},
		},
	}

	switch method {
	case MethodBTC:
		out.Lines = []string{
			fmt.Sprintf("Send exactly %s worth of BTC to the address below.", amount),
			fmt.Sprintf("Include reference %s in your payment note or contact support with it after sending.", referenceID),
		}
		out.Fields = append(out.Fields,
			InstructionField{Label: "BTC address", Value: orNotSet(cfg.BTCAddress)},
			InstructionField{Label: "Network", Value: orNotSet(cfg.BTCNetwork)},
		)
		if strings.TrimSpace(cfg.BTCAddress) != "" {
			out.QRURL = "bitcoin:" + strings.TrimSpace(cfg.BTCAddress)
		}
	case MethodMomo:
		out.Lines = []string{
			fmt.Sprintf("Send %s via mobile money to the number below.", amount),
			fmt.Sprintf("Use %s as the transfer reference.", referenceID),
		}
		out.Fields = append(out.Fields,
			InstructionField{Label: "Provider", Value: orNotSet(cfg.MomoProvider)},
			InstructionField{Label: "Number", Value: orNotSet(cfg.MomoNumber)},
			InstructionField{Label: "Account name", Value: orNotSet(cfg.MomoAccountName)},
		)
	case MethodWU:
		out.Lines = []string{
			fmt.Sprintf("Send %s via Western Union to the receiver below.", amount),
			fmt.Sprintf("Submit the MTCN together with reference %s.", referenceID),
		}
		out.Fields = append(out.Fields,
			InstructionField{Label: "Receiver", Value: orNotSet(cfg.WireBeneficiary)},
			InstructionField{Label: "City", Value: orNotSet(cfg.WireCity)},
			InstructionField{Label: "Country", Value: orNotSet(cfg.WireCountry)},
		)
	case MethodBank:
		out.Lines = []string{
			fmt.Sprintf("Transfer %s to the bank account below.", amount),
			fmt.Sprintf("Use %s as the transfer narration.", referenceID),
		}
		out.Fields = append(out.Fields,
			InstructionField{Label: "Bank", Value: orNotSet(cfg.BankName)},
			InstructionField{Label: "Account name", Value: orNotSet(cfg.BankAccountName)},
			InstructionField{Label: "Account number", Value: orNotSet(cfg.BankAccountNumber)},
			InstructionField{Label: "SWIFT", Value: orNotSet(cfg.BankSwiftCode)},
		)
	case MethodPayPal:
		out.Lines = []string{
			fmt.Sprintf("Send %s via PayPal to the address below.", amount),
			fmt.Sprintf("Put %s in the payment note.", referenceID),
		}
		out.Fields = append(out.Fields,
			InstructionField{Label: "PayPal email", Value: orNotSet(cfg.PayPalEmail)},
		)
	default:
		out.Lines = []string{
			fmt.Sprintf("Contact support to arrange a manual payment of %s.", amount),
			fmt.Sprintf("Quote reference %s in all correspondence.", referenceID),
		}
		out.Fields = append(out.Fields,
			InstructionField{Label: "Support email", Value: orNotSet(cfg.ContactEmail)},
		)
	}
	return out
}

// FormatCents renders an integer minor-unit amount as a USD string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func orNotSet(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return NotSetMarker
	}
	return trimmed
}

package pixgo

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ChargeParams contains the fields required to create a PIX charge.
type ChargeParams struct {
	Amount      decimal.Decimal
	Description string
	PayerName   string
	PayerTaxID  string
	PayerEmail  string
	PayerPhone  string
	ExternalID  string
}

type createChargeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	CustomerName  string          `json:"customer_name"`
	CustomerCPF   string          `json:"customer_cpf"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	ExternalID    string          `json:"external_id"`
}

func (p ChargeParams) toRequest() createChargeRequest {
	return createChargeRequest{
		Amount:        p.Amount,
		Description:   strings.TrimSpace(p.Description),
		CustomerName:  strings.TrimSpace(p.PayerName),
		CustomerCPF:   digitsOnly(p.PayerTaxID),
		CustomerEmail: strings.TrimSpace(p.PayerEmail),
		CustomerPhone: strings.TrimSpace(p.PayerPhone),
		ExternalID:    strings.TrimSpace(p.ExternalID),
	}
}

// digitsOnly strips formatting from Brazilian tax ids (CPF/CNPJ) so the
// provider receives the bare digit string.
func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

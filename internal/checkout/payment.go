package checkout

import (
	"net/url"
	"strings"

	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// BankDetails are the merchant account details for bank transfers.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

// PaymentDetails tells the customer how much to pay and where.
type PaymentDetails struct {
	AmountDue decimal.Decimal
	Currency  string
	UPIVPA    string
	PayeeName string
	UPILink   string
	Bank      *BankDetails
}

// UPILink builds a upi://pay deep link for amount.
func UPILink(vpa, payee string, amount decimal.Decimal, currency string) string {
	params := [][2]string{
		{"pa", vpa},
		{"pn", payee},
		{"am", money.Format(amount)},
		{"cu", currency},
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p[0]+"="+strings.ReplaceAll(url.QueryEscape(p[1]), "+", "%20"))
	}
	return "upi://pay?" + strings.Join(parts, "&")
}

func bankDetails(cfg config.PaymentConfig) *BankDetails {
	if strings.TrimSpace(cfg.AccountNumber) == "" {
		return nil
	}
	return &BankDetails{
		BankName:      cfg.BankName,
		AccountName:   cfg.AccountName,
		AccountNumber: cfg.AccountNumber,
		IFSC:          cfg.IFSC,
	}
}

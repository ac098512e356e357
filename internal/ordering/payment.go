package ordering

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"feastly/internal/models"

	"github.com/lucsky/cuid"
)

// CardDetails is what the checkout form collects for card payments.
// Nothing is charged; the details are only checked for shape.
type CardDetails struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVC    string `json:"cvc"`
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{13,19}$`)
	cvcPattern        = regexp.MustCompile(`^\d{3,4}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
)

// ValidateCard checks card details against now
func ValidateCard(card *CardDetails, now time.Time) error {
	if card == nil {
		return models.NewValidationError("card", "card details are required")
	}
	if strings.TrimSpace(card.Name) == "" {
		return models.NewValidationError("card.name", "card holder name is required")
	}
	number := strings.NewReplacer(" ", "", "-", "").Replace(card.Number)
	if !cardNumberPattern.MatchString(number) {
		return models.NewValidationError("card.number", "invalid card number")
	}
	if card.CVC != "" && !cvcPattern.MatchString(card.CVC) {
		return models.NewValidationError("card.cvc", "invalid security code")
	}

	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(card.Expiry))
	if m == nil {
		return models.NewValidationError("card.expiry", "expiry must be MM/YY")
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	// a card is valid through the last day of its expiry month
	expires := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(expires) {
		return models.NewValidationError("card.expiry", "card has expired")
	}
	return nil
}

// authorizePayment stands in for a payment provider and returns a payment id
func authorizePayment(method models.PaymentMethod, card *CardDetails, now time.Time) (string, error) {
	switch method {
	case models.PaymentMethodCard:
		if err := ValidateCard(card, now); err != nil {
			return "", err
		}
		return "pay_" + cuid.New(), nil
	case models.PaymentMethodCash:
		return "cash_" + cuid.New(), nil
	default:
		return "", models.NewValidationError("paymentMethod", "unsupported payment method %q", method)
	}
}

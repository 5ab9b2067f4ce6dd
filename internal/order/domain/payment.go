package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

// PaymentMethod is a closed set: the unexported marker keeps variants inside
// this package, and every variant must supply its own Fee.
type PaymentMethod interface {
	Kind() PaymentKind
	Fee(subtotal money.Money) money.Money
	// Label is the audit text for the method. It never carries a full card
	// number.
	Label() string
	paymentMethod()
}

type PaymentKind string

const (
	KindCreditCard     PaymentKind = "credit_card"
	KindCashOnDelivery PaymentKind = "cash_on_delivery"
	KindDigitalWallet  PaymentKind = "digital_wallet"
)

const codThreshold = 10000

var (
	codFeeSmall = money.MustNew(330)
	codFeeLarge = money.MustNew(440)

	cardNumberRe = regexp.MustCompile(`^[0-9]{12,19}$`)
	cardLast4Re  = regexp.MustCompile(`^[0-9]{4}$`)
	cardExpiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// CreditCard keeps only the last four digits and the expiry; two cards are
// equal when both match.
type CreditCard struct {
	Last4  string
	Expiry string
}

func NewCreditCard(number, expiry string) (CreditCard, error) {
	number = strings.ReplaceAll(number, " ", "")
	if !cardNumberRe.MatchString(number) {
		return CreditCard{}, fmt.Errorf("%w: card number", ErrInvalidPaymentMethod)
	}
	if !cardExpiryRe.MatchString(expiry) {
		return CreditCard{}, fmt.Errorf("%w: card expiry %q", ErrInvalidPaymentMethod, expiry)
	}
	return CreditCard{Last4: number[len(number)-4:], Expiry: expiry}, nil
}

func (CreditCard) Kind() PaymentKind           { return KindCreditCard }
func (CreditCard) Fee(money.Money) money.Money { return money.Zero }
func (c CreditCard) Label() string             { return "credit card ending " + c.Last4 }
func (CreditCard) paymentMethod()              {}

type CashOnDelivery struct{}

func (CashOnDelivery) Kind() PaymentKind { return KindCashOnDelivery }

func (CashOnDelivery) Fee(subtotal money.Money) money.Money {
	if subtotal.Amount() < codThreshold {
		return codFeeSmall
	}
	return codFeeLarge
}

func (CashOnDelivery) Label() string  { return "cash on delivery" }
func (CashOnDelivery) paymentMethod() {}

type DigitalWallet struct {
	AccountID string
}

func NewDigitalWallet(accountID string) (DigitalWallet, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return DigitalWallet{}, fmt.Errorf("%w: wallet account is required", ErrInvalidPaymentMethod)
	}
	return DigitalWallet{AccountID: accountID}, nil
}

func (DigitalWallet) Kind() PaymentKind           { return KindDigitalWallet }
func (DigitalWallet) Fee(money.Money) money.Money { return money.Zero }
func (w DigitalWallet) Label() string             { return "digital wallet " + w.AccountID }
func (DigitalWallet) paymentMethod()              {}

// Detail is the variant payload persisted next to the kind.
func Detail(m PaymentMethod) string {
	switch v := m.(type) {
	case CreditCard:
		return v.Last4 + "|" + v.Expiry
	case CashOnDelivery:
		return ""
	case DigitalWallet:
		return v.AccountID
	}
	// Unreachable: the unexported marker closes the variant set.
	return ""
}

// ParsePaymentMethod rebuilds a method from its stored kind and detail.
// Unknown kinds are rejected.
func ParsePaymentMethod(kind PaymentKind, detail string) (PaymentMethod, error) {
	switch kind {
	case KindCreditCard:
		last4, expiry, ok := strings.Cut(detail, "|")
		if !ok || !cardLast4Re.MatchString(last4) || !cardExpiryRe.MatchString(expiry) {
			return nil, fmt.Errorf("%w: stored card %q", ErrInvalidPaymentMethod, detail)
		}
		return CreditCard{Last4: last4, Expiry: expiry}, nil
	case KindCashOnDelivery:
		return CashOnDelivery{}, nil
	case KindDigitalWallet:
		return NewDigitalWallet(detail)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidPaymentMethod, kind)
}

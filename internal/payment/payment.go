// Package payment abstracts payment processing behind a Strategy interface
// so the checkout flow stays independent of any single gateway.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const MethodCreditCard = "CreditCard"

var (
	ErrMissingFields      = errors.New("missing required payment fields")
	ErrCardRejected       = errors.New("card rejected")
	ErrCardProcessing     = errors.New("card processing error")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrGatewayUnreachable = errors.New("payment gateway unreachable")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrUnknownMethod      = errors.New("unknown payment method")
)

// CardDetails carries the card data the client submits at checkout. Month,
// year and CVV stay strings end to end; the gateway expects them that way.
type CardDetails struct {
	CardNumber      string `json:"cardNumber"`
	FullName        string `json:"fullName"`
	ExpirationMonth string `json:"expirationMonth"`
	ExpirationYear  string `json:"expirationYear"`
	CVV             string `json:"cvv"`
	Currency        string `json:"currency"`
}

// Result reports a successful charge.
type Result struct {
	TransactionID string
	Message       string
}

type Strategy interface {
	ProcessPayment(ctx context.Context, card CardDetails, amount decimal.Decimal, currency, description string) (Result, error)
}

// Registry maps payment method names to strategies. Unknown methods are
// rejected rather than aliased to a default.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

func (r *Registry) Register(method string, s Strategy) {
	r.strategies[method] = s
}

func (r *Registry) Resolve(method string) (Strategy, error) {
	s, ok := r.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return s, nil
}

func validateCard(card CardDetails) error {
	switch {
	case card.CardNumber == "":
		return fmt.Errorf("%w: cardNumber", ErrMissingFields)
	case card.FullName == "":
		return fmt.Errorf("%w: fullName", ErrMissingFields)
	case card.ExpirationMonth == "":
		return fmt.Errorf("%w: expirationMonth", ErrMissingFields)
	case card.ExpirationYear == "":
		return fmt.Errorf("%w: expirationYear", ErrMissingFields)
	case card.CVV == "":
		return fmt.Errorf("%w: cvv", ErrMissingFields)
	}
	return nil
}

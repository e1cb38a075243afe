package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// CreditCard charges cards through the external payment gateway. The
// gateway answers a successful charge with a 301/302 whose Location path
// ends in the transaction id, so the client must not follow redirects.
type CreditCard struct {
	client *resty.Client
}

func NewCreditCard(gatewayURL string, timeout time.Duration) *CreditCard {
	client := resty.New().
		SetBaseURL(strings.TrimRight(gatewayURL, "/")).
		SetTimeout(timeout).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	return &CreditCard{client: client}
}

type apiKeyResponse struct {
	APIKey string `json:"apiKey"`
}

type gatewayResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TransactionID string `json:"transaction_id"`
	} `json:"data"`
	Message string `json:"message"`
}

func (cc *CreditCard) ProcessPayment(ctx context.Context, card CardDetails, amount decimal.Decimal, currency, description string) (Result, error) {
	if err := validateCard(card); err != nil {
		return Result{}, err
	}

	apiKey, err := cc.fetchAPIKey(ctx)
	if err != nil {
		return Result{}, err
	}

	body := map[string]any{
		"full-name":        card.FullName,
		"card-number":      card.CardNumber,
		"expiration-month": card.ExpirationMonth,
		"expiration-year":  card.ExpirationYear,
		"cvv":              card.CVV,
		"amount":           amount.InexactFloat64(),
		"currency":         strings.ToUpper(currency),
		"description":      description,
		"reference":        fmt.Sprintf("order-%d", time.Now().UnixNano()),
	}

	var parsed gatewayResponse
	resp, err := cc.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/payments")
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}

	if resp.StatusCode() == http.StatusMovedPermanently || resp.StatusCode() == http.StatusFound {
		location := resp.Header().Get("Location")
		txID := lastPathSegment(location)
		if txID == "" {
			return Result{}, fmt.Errorf("%w: redirect without transaction id", ErrPaymentFailed)
		}
		return Result{TransactionID: txID, Message: "approved"}, nil
	}

	if parsed.Success && parsed.Data.TransactionID != "" {
		return Result{TransactionID: parsed.Data.TransactionID, Message: parsed.Message}, nil
	}

	return Result{}, classifyGatewayMessage(parsed.Message)
}

func (cc *CreditCard) fetchAPIKey(ctx context.Context) (string, error) {
	var parsed apiKeyResponse
	resp, err := cc.client.R().
		SetContext(ctx).
		SetResult(&parsed).
		Get("/payments/api-key")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	if resp.StatusCode() != http.StatusOK || parsed.APIKey == "" {
		return "", fmt.Errorf("%w: api key request returned %d", ErrGatewayUnreachable, resp.StatusCode())
	}
	return parsed.APIKey, nil
}

func lastPathSegment(location string) string {
	location = strings.TrimRight(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		return location[i+1:]
	}
	return location
}

func classifyGatewayMessage(message string) error {
	switch {
	case strings.Contains(message, "Card rejected"):
		return fmt.Errorf("%w: %s", ErrCardRejected, message)
	case strings.Contains(message, "Card error"):
		return fmt.Errorf("%w: %s", ErrCardProcessing, message)
	case strings.Contains(message, "Insufficient funds"):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, message)
	case message == "":
		return ErrPaymentFailed
	default:
		return fmt.Errorf("%w: %s", ErrPaymentFailed, message)
	}
}

package external

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

// StripeConfig holds credentials for the card-payment processor.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// Intent is the processor-side payment intent as seen by the core.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// RefundResult describes a processor-side refund.
type RefundResult struct {
	ID     string
	Amount int64
	Status string
}

// Succeeded reports whether the processor considers the intent paid.
func (i *Intent) Succeeded() bool {
	return i.Status == string(stripe.PaymentIntentStatusSucceeded)
}

// StripeClient talks to Stripe for intents and refunds. All amounts are in
// the processor currency's minor unit.
type StripeClient struct {
	cfg StripeConfig
}

func NewStripeClient(cfg StripeConfig) (*StripeClient, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	stripe.Key = cfg.SecretKey

	return &StripeClient{cfg: cfg}, nil
}

// CreateIntent opens a payment intent with the processor.
func (c *StripeClient) CreateIntent(amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return intentFromStripe(pi), nil
}

// GetIntent fetches the current processor-side state of an intent.
func (c *StripeClient) GetIntent(intentID string) (*Intent, error) {
	pi, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	return intentFromStripe(pi), nil
}

// Refund refunds the given minor-unit amount against an intent.
func (c *StripeClient) Refund(intentID string, amount int64) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amount),
	}

	re, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResult{
		ID:     re.ID,
		Amount: re.Amount,
		Status: string(re.Status),
	}, nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

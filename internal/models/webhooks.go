package models

import "encoding/json"

// Webhook event types delivered by the payment processor. Unknown types must
// be acknowledged without error.
const (
	WebhookPaymentSucceeded = "payment_intent.succeeded"
	WebhookPaymentFailed    = "payment_intent.payment_failed"
	WebhookChargeRefunded   = "charge.refunded"
	WebhookDisputeCreated   = "charge.dispute.created"
)

// WebhookEvent is the processor's event envelope. Signature verification
// happens upstream; the core processes the payload as received.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// WebhookIntent is the payment-intent object embedded in intent events.
type WebhookIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
	LastPaymentError struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// WebhookCharge is the charge object embedded in charge events.
type WebhookCharge struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
}

// WebhookDispute is the dispute object embedded in dispute events.
type WebhookDispute struct {
	ID            string `json:"id"`
	Charge        string `json:"charge"`
	PaymentIntent string `json:"payment_intent"`
	Reason        string `json:"reason"`
	Amount        int64  `json:"amount"`
}

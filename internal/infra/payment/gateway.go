package payment

import (
	"context"

	"github.com/google/uuid"
)

const (
	IntentStatusSucceeded = "succeeded"
)

// Intent is the provider-neutral slice of a payment intent the booking
// flow cares about.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type Gateway interface {
	// CreateIntent opens a payment intent for the full appointment price.
	CreateIntent(ctx context.Context, appointmentID uuid.UUID, confirmationNumber string, amountCents int64) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}

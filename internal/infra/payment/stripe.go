package payment

import (
	"context"

	"garage-booking/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

var (
	errIntentCreate = errs.New("failed to create payment intent")
	errIntentGet    = errs.New("failed to get payment intent")
)

type StripeGateway struct {
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{currency: currency}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, appointmentID uuid.UUID, confirmationNumber string, amountCents int64) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	// One intent per appointment, also across handler retries
	params.IdempotencyKey = stripe.String("appt-intent-" + appointmentID.String())
	params.AddMetadata("appointment_id", appointmentID.String())
	params.AddMetadata("confirmation_number", confirmationNumber)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, errs.Mark(err, errIntentCreate)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, errs.Mark(err, errIntentGet)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

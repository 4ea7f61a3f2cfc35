package payment

import (
	"context"
	"net/http"
	"strings"

	apperrors "bundlehub/internal/errors"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// PaymentIntentGetter matches paymentintent.Client.Get.
type PaymentIntentGetter func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

type StripeVerifier struct {
	get PaymentIntentGetter
}

func NewStripeVerifier(secretKey string) *StripeVerifier {
	api := client.New(secretKey, nil)
	return &StripeVerifier{get: api.PaymentIntents.Get}
}

func NewStripeVerifierWithGetter(get PaymentIntentGetter) *StripeVerifier {
	return &StripeVerifier{get: get}
}

// Verify looks up the PaymentIntent named by reference.
func (v *StripeVerifier) Verify(ctx context.Context, reference string) (*VerifiedPayment, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := v.get(reference, params)
	if err != nil {
		var stripeErr *stripe.Error
		if apperrors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			if stripeErr.HTTPStatusCode == http.StatusNotFound {
				return nil, apperrors.WithMessage(apperrors.ErrPaymentNotConfirmed, "stripe: no such payment intent %s", reference)
			}
			return nil, apperrors.WithMessage(apperrors.ErrPaymentNotConfirmed, "stripe: %s", stripeErr.Msg)
		}
		return nil, apperrors.Wrap(apperrors.ErrPaymentProviderUnavailable, err)
	}

	var userID *uint
	if pi.Metadata != nil {
		userID = parseUserID(pi.Metadata["userId"])
	}
	return &VerifiedPayment{
		Provider:  ProviderStripe,
		Reference: pi.ID,
		Amount:    minorToMajor(pi.Amount),
		Currency:  strings.ToUpper(string(pi.Currency)),
		Status:    string(pi.Status),
		Paid:      pi.Status == stripe.PaymentIntentStatusSucceeded,
		Email:     pi.ReceiptEmail,
		UserID:    userID,
	}, nil
}

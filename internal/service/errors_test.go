package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"reversed dates", ErrEndNotAfterStart, ClassValidation},
		{"past start", ErrStartInPast, ClassValidation},
		{"bad phone", ErrInvalidPhone, ClassValidation},
		{"no draft", ErrNoDraft, ClassValidation},
		{"session not ready", ErrSessionNotReady, ClassValidation},
		{"provider down", ErrProviderUnavailable, ClassTransient},
		{"confirmation in flight", ErrConfirmationInFlight, ClassTransient},
		{"vehicle taken", ErrVehicleUnavailable, ClassBusiness},
		{"declined", ErrPaymentDeclined, ClassBusiness},
		{"cutoff passed", ErrCancellationWindowClosed, ClassBusiness},
		{"stale session", ErrStaleSession, ClassBusiness},
		{"missing user", ErrInvalidUserID, ClassAuth},
		{"bad correlation id", ErrInvalidCorrelationID, ClassFatal},
		{"needs review", ErrPaymentNeedsReview, ClassPaymentReview},
		{"unknown", errors.New("disk full"), ClassInternal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestClassifySeesThroughWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("pushing charge: %w", ErrProviderUnavailable)
	assert.Equal(t, ClassTransient, Classify(wrapped))
}

func TestPaymentReviewErrorCarriesReference(t *testing.T) {
	t.Parallel()

	err := &PaymentReviewError{Reference: "pi_3MtwBwLkdIwHu7ix28a3tqPa"}

	assert.ErrorIs(t, err, ErrPaymentNeedsReview)
	assert.Equal(t, ClassPaymentReview, Classify(err))
	assert.Contains(t, err.Error(), "pi_3MtwBwLkdIwHu7ix28a3tqPa")
}

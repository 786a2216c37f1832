package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTypedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid input", NewInvalidInput("name", "blank"), KindInvalidInput},
		{"invalid configuration", NewInvalidConfiguration("S", "both service and operator"), KindInvalidConfiguration},
		{"binding failure", NewBindingFailure("Sym", nil), KindBindingFailure},
		{"transient", NewTransient(errors.New("boom")), KindTransient},
		{"permanent", NewPermanent(errors.New("boom")), KindPermanent},
		{"timeout", NewTimeout("run"), KindTimeout},
		{"cancelled", ErrPipelineCancelled, KindCancelled},
		{"unknown", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestClassifyWrappedError(t *testing.T) {
	wrapped := NewStepError("Tokenize", NewTransient(errors.New("boom")))
	assert.Equal(t, KindTransient, Classify(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, KindTransient.IsRetryable())
	assert.False(t, KindPermanent.IsRetryable())
	assert.False(t, KindTimeout.IsRetryable())
}

func TestClassifyNil(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(nil))
}

package wagererr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := New(CodeWinnerConflict, "wager %d already has winner %s", 7, "abc")
	wrapped := fmt.Errorf("failed to complete wager: %w", err)

	assert.True(t, errors.Is(wrapped, ErrWinnerConflict))
	assert.False(t, errors.Is(wrapped, ErrAlreadyPaid))
	assert.Equal(t, CodeWinnerConflict, CodeOf(wrapped))
	assert.Equal(t, KindStateConflict, KindOf(wrapped))
	assert.Equal(t, "wager 7 already has winner abc", err.Error())
}

func TestError_Kinds(t *testing.T) {
	tests := []struct {
		code Code
		kind Kind
	}{
		{CodeInvalidAmount, KindValidation},
		{CodeSelfJoin, KindValidation},
		{CodeNotFound, KindNotFound},
		{CodeDuplicateOutstanding, KindStateConflict},
		{CodeNotYetEligible, KindStateConflict},
		{CodeOracleUnavailable, KindExternal},
		{CodeProfileMissing, KindExternal},
		{CodeRateLimited, KindRateLimited},
		{Code("SOMETHING_ELSE"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.kind, New(tt.code, "x").Kind())
		})
	}
}

func TestError_UntypedErrorsAreInternal(t *testing.T) {
	err := errors.New("connection reset")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestError_NilHasNoCode(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(CodeOracleUnavailable, cause, "battlelog request failed")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, "battlelog request failed: dial tcp: timeout", err.Error())
}

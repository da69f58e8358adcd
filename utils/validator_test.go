package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructMessages(t *testing.T) {
	type payload struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	require.NoError(t, ValidateStruct(payload{Email: "alice@example.com", Password: "correct-horse"}))

	err := ValidateStruct(payload{})
	require.Error(t, err)
	assert.Equal(t, "email is required, password is required", err.Error())

	err = ValidateStruct(payload{Email: "nope", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email, password must be at least 8 characters", err.Error())
}

func TestValidateStructMessageIsLiteral(t *testing.T) {
	type payload struct {
		Code string `validate:"required,min=5"`
	}

	// Field values containing formatting verbs must come through untouched.
	err := ValidateStruct(payload{Code: "%s%d"})
	require.Error(t, err)
	assert.Equal(t, "code must be at least 5 characters", err.Error())
	assert.NotContains(t, err.Error(), "%!")
}

package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "myapp_user", User{}.TableName())
	assert.Equal(t, "myapp_userverification", UserVerification{}.TableName())
}

func TestSignupEvent_MissingFieldsDecodeEmpty(t *testing.T) {
	var event SignupEvent
	require.NoError(t, json.Unmarshal([]byte(`{"username":"jane@example.com","verification_api":"api/verify"}`), &event))

	assert.Equal(t, "jane@example.com", event.Username)
	assert.Equal(t, "api/verify", event.VerificationAPI)
	assert.Empty(t, event.FirstName)
	assert.Empty(t, event.Hostname)
}

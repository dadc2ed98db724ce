package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addressInput struct {
	Address string `json:"address" validate:"required"`
}

type signup struct {
	Username string       `json:"username" validate:"required,min=3,alphanum"`
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required,pwd"`
	Address  addressInput `json:"address"`
	Type     string       `json:"type" validate:"omitempty,mailtype"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestToDetails_FieldMessages(t *testing.T) {
	err := newValidator().Struct(signup{Username: "a!", Email: "nope", Password: "123", Type: "parcel"})
	details := ToDetails(err)

	got := map[string]string{}
	for _, d := range details {
		got[d.Field] = d.Message
	}
	assert.Equal(t, "username must be at least 3 characters long", got["username"])
	assert.Equal(t, "email must be a valid email", got["email"])
	assert.Equal(t, "password must be at least 6 characters long", got["password"])
	assert.Equal(t, "address.address is required", got["address.address"])
	assert.Equal(t, "type must be one of: letter, postcard", got["type"])
	assert.Equal(t, details[0].Message, Message(details))
}

func TestToDetails_Alphanumeric(t *testing.T) {
	err := newValidator().Struct(signup{Username: "han solo", Email: "h@x.test", Password: "123456", Address: addressInput{"A"}})
	details := ToDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "username must contain only letters and numbers", details[0].Message)
}

func TestToDetails_BadJSON(t *testing.T) {
	var v signup
	err := json.Unmarshal([]byte(`{"username":`), &v)
	assert.Equal(t, []FieldError{{Field: "payload", Message: "invalid json"}}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"username":5}`), &v)
	details := ToDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "username", details[0].Field)
	assert.Equal(t, "validation failed", Message(nil))
}

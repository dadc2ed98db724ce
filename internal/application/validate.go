package application

import (
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/galactic-postbox/pkg/validation"
)

// validate checks service inputs using the same "binding" tags and aliases
// that gin applies to request bodies.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	validation.Configure(v)
	return v
}()

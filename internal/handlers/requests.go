package handlers

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var roomNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator with the "roomname" tag registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	mustRegister(v, "roomname", func(fl validator.FieldLevel) bool {
		return roomNamePattern.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// mustRegister panics when a tag cannot be registered. Request structs
// reference these tags, so a missing one would fail every request.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// UpdateRequest is the DTO for POST /api/updates.
type UpdateRequest struct {
	Category string          `json:"category" validate:"required,max=32"`
	Action   string          `json:"action" validate:"required,max=64"`
	Room     string          `json:"room" validate:"omitempty,roomname"`
	Data     json.RawMessage `json:"data"`
}

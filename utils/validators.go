package utils

import (
	"fmt"
	"unicode"

	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 6

// RegisterCustomValidators adds the "password" and "priority" rules.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("password", ValidatePasswordRule); err != nil {
		return fmt.Errorf("register password rule: %w", err)
	}
	if err := v.RegisterValidation("priority", ValidatePriorityRule); err != nil {
		return fmt.Errorf("register priority rule: %w", err)
	}
	return nil
}

// InitValidator registers the custom rules on gin's binding engine.
func InitValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return RegisterCustomValidators(v)
}

func ValidatePasswordRule(fl validator.FieldLevel) bool {
	return ValidatePassword(fl.Field().String())
}

// ValidatePriorityRule accepts an empty value so the field can stay optional.
func ValidatePriorityRule(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || model.Priority(value).Valid()
}

// ValidatePassword requires MinPasswordLength characters and at least one digit.
func ValidatePassword(password string) bool {
	if len([]rune(password)) < MinPasswordLength {
		return false
	}
	for _, char := range password {
		if unicode.IsNumber(char) {
			return true
		}
	}
	return false
}

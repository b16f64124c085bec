package gqlauth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// ValidateStringEquals builds a rule asserting the value matches str, used
// for password confirmation fields.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber accepts empty values and otherwise requires a valid
// E.164 number, e.g. +14155552671.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if !strings.HasPrefix(s, "+") {
		return errors.New("must be in international format starting with +")
	}

	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

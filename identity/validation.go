package identity

import (
	"fmt"
	"maps"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// PhoneMetadataKey is the optional principal metadata field holding a
// contact phone. It is stored in E.164.
const PhoneMetadataKey = "phone"

type signUpRequest struct {
	Email    string
	Password string
}

func (r signUpRequest) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
	)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeMetadata copies metadata and rewrites the phone field to E.164.
func normalizeMetadata(metadata map[string]any, region string) (map[string]any, error) {
	out := maps.Clone(metadata)
	if out == nil {
		out = map[string]any{}
	}

	raw, ok := out[PhoneMetadataKey]
	if !ok || raw == nil || raw == "" {
		delete(out, PhoneMetadataKey)
		return out, nil
	}

	phone, err := normalizePhone(raw, region)
	if err != nil {
		return nil, err
	}
	out[PhoneMetadataKey] = phone

	return out, nil
}

func normalizePhone(raw any, region string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, raw)
	}

	num, err := phonenumbers.Parse(s, region)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPhone, err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, s)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

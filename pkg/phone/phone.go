package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured
const DefaultRegion = "US"

// ValidationResult contains the result of phone number validation.
type ValidationResult struct {
	IsValid             bool   `json:"is_valid"`
	E164Format          string `json:"e164_format"`
	InternationalFormat string `json:"international_format"`
	CountryCode         string `json:"country_code"`
}

// ValidatePhone parses a phone number relative to a default region.
func ValidatePhone(phone, region string) (*ValidationResult, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone number cannot be empty")
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	return &ValidationResult{
		IsValid:             phonenumbers.IsValidNumber(parsed),
		E164Format:          phonenumbers.Format(parsed, phonenumbers.E164),
		InternationalFormat: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		CountryCode:         phonenumbers.GetRegionCodeForNumber(parsed),
	}, nil
}

// NormalizeE164 returns the E.164 form of a valid number. Empty, unparseable and
// invalid numbers are returned unchanged with ok false.
func NormalizeE164(phone, region string) (string, bool) {
	if phone == "" {
		return phone, false
	}
	result, err := ValidatePhone(phone, region)
	if err != nil || !result.IsValid {
		return phone, false
	}
	return result.E164Format, true
}

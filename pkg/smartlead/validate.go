package smartlead

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jordanlanch/leadtriage/pkg/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// decodeObject unmarshals raw into v and validates the result against its struct tags
func decodeObject(raw []byte, v any, what string) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.NewValidationError(fmt.Sprintf("invalid %s payload", what), err)
	}
	if err := schemaValidator().Struct(v); err != nil {
		return domain.NewValidationError(fmt.Sprintf("%s schema validation failed", what), err)
	}
	return nil
}

// decodeList requires raw to be a JSON array and validates every element
func decodeList[T any](raw []byte, what string) ([]T, error) {
	if kind := jsonKind(raw); kind != "array" {
		return nil, domain.NewValidationError(
			fmt.Sprintf("unexpected %s response (expected list, got %s)", what, kind), nil)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid %s payload", what), err)
	}
	for i := range items {
		if err := schemaValidator().Struct(&items[i]); err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("%s schema validation failed at index %d", what, i), err)
		}
	}
	return items, nil
}

// jsonKind names the top-level JSON type of raw
func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty body"
	}
	switch raw[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// DecodeCampaign validates a single campaign payload
func DecodeCampaign(raw []byte) (*Campaign, error) {
	var c Campaign
	if err := decodeObject(raw, &c, "campaign"); err != nil {
		return nil, err
	}
	return &c, nil
}

// DecodeCampaigns validates a campaign list payload
func DecodeCampaigns(raw []byte) ([]Campaign, error) {
	return decodeList[Campaign](raw, "campaigns")
}

// DecodeLeadsPage validates one page of campaign leads
func DecodeLeadsPage(raw []byte) (*LeadsPage, error) {
	var p LeadsPage
	if err := decodeObject(raw, &p, "campaign leads"); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeStatistics validates a campaign analytics payload
func DecodeStatistics(raw []byte) (*Statistics, error) {
	var s Statistics
	if err := decodeObject(raw, &s, "campaign statistics"); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeSequences validates a campaign sequence list payload
func DecodeSequences(raw []byte) ([]Sequence, error) {
	return decodeList[Sequence](raw, "campaign sequences")
}

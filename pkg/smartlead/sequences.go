package smartlead

import (
	"context"
	"fmt"
	"net/http"
)

// GetSequences fetches a campaign's sequence steps in platform order
func (cl *Client) GetSequences(ctx context.Context, campaignID int) ([]Sequence, error) {
	raw, err := cl.do(ctx, call{
		api:      publicAPI,
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("campaigns/%d/sequences", campaignID),
	})
	if err != nil {
		return nil, err
	}

	sequences, err := DecodeSequences(raw)
	if err != nil {
		return nil, fmt.Errorf("sequences for campaign %d: %w", campaignID, err)
	}
	return sequences, nil
}

// AddSequences submits sequences to a campaign. The platform appends new steps and
// updates steps whose id is set; it never removes steps missing from the payload.
func (cl *Client) AddSequences(ctx context.Context, campaignID int, sequences []SequenceInput) error {
	if sequences == nil {
		sequences = []SequenceInput{}
	}

	_, err := cl.do(ctx, call{
		api:      publicAPI,
		method:   http.MethodPost,
		endpoint: fmt.Sprintf("campaigns/%d/sequences", campaignID),
		body:     map[string]any{"sequences": sequences},
	})
	if err != nil {
		return fmt.Errorf("error adding sequences to campaign %d: %w", campaignID, err)
	}
	return nil
}

package followup

import (
	"context"
	"fmt"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
)

// SequenceClient is the part of the Smartlead client the duplicator needs
type SequenceClient interface {
	GetSequences(ctx context.Context, campaignID int) ([]smartlead.Sequence, error)
	AddSequences(ctx context.Context, campaignID int, sequences []smartlead.SequenceInput) error
}

// BuildFollowUps returns the sequence submission that appends a second round of
// every step: the originals unchanged (ids kept), then one clone per original
// numbered after the last, without ids. Only the first clone takes delayDays;
// the others keep their source delay.
func BuildFollowUps(sequences []smartlead.Sequence, delayDays int) []smartlead.SequenceInput {
	k := len(sequences)
	out := make([]smartlead.SequenceInput, 0, 2*k)

	for _, seq := range sequences {
		out = append(out, toInput(seq, true))
	}
	for i, seq := range sequences {
		clone := toInput(seq, false)
		clone.SeqNumber = k + i + 1
		if i == 0 {
			clone.SeqDelayDetails = &smartlead.SeqDelayDetailsInput{DelayInDays: delayDays}
		}
		out = append(out, clone)
	}
	return out
}

func toInput(seq smartlead.Sequence, keepIDs bool) smartlead.SequenceInput {
	subject, body := seq.Subject, seq.EmailBody
	in := smartlead.SequenceInput{
		SeqNumber:       seq.SeqNumber,
		Subject:         &subject,
		EmailBody:       &body,
		SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: seq.SeqDelayDetails.DelayInDays},
	}
	if keepIDs {
		id := seq.ID
		in.ID = &id
	}

	for _, v := range seq.SequenceVariants {
		variant := smartlead.VariantInput{
			Subject:      v.Subject,
			EmailBody:    v.EmailBody,
			VariantLabel: v.VariantLabel,
		}
		if keepIDs {
			id := v.ID
			variant.ID = &id
		}
		if v.VariantDistributionPercentage != nil {
			pct := float64(*v.VariantDistributionPercentage)
			variant.VariantDistributionPercentage = &pct
		}
		in.SeqVariants = append(in.SeqVariants, variant)
	}
	return in
}

// Duplicator appends follow-up rounds to campaigns
type Duplicator struct {
	client SequenceClient
	logger logger.Logger
}

// NewDuplicator creates a new duplicator
func NewDuplicator(client SequenceClient, log logger.Logger) *Duplicator {
	if log == nil {
		log = logger.Default()
	}
	return &Duplicator{client: client, logger: log.With("component", "followup")}
}

// Duplicate appends one follow-up round to a campaign. When expectedLength is set
// and the campaign already has at least that many steps nothing is submitted and
// false is returned, so re-running a batch does not stack extra rounds.
func (d *Duplicator) Duplicate(ctx context.Context, campaignID, delayDays int, expectedLength *int) (bool, error) {
	if delayDays < 0 {
		return false, domain.NewPreconditionError(fmt.Sprintf("delay must be zero or more days, got %d", delayDays))
	}

	sequences, err := d.client.GetSequences(ctx, campaignID)
	if err != nil {
		return false, addSequencesError(campaignID, err)
	}

	if expectedLength != nil && len(sequences) >= *expectedLength {
		d.logger.Info("campaign already has follow-ups, skipping",
			"campaign_id", campaignID,
			"sequences", len(sequences),
			"expected_length", *expectedLength)
		return false, nil
	}

	if err := d.client.AddSequences(ctx, campaignID, BuildFollowUps(sequences, delayDays)); err != nil {
		return false, addSequencesError(campaignID, err)
	}

	d.logger.Info("follow-up sequences added",
		"campaign_id", campaignID,
		"original_steps", len(sequences),
		"delay_days", delayDays)
	return true, nil
}

// addSequencesError is shown verbatim in follow-up outcome rows, so it keeps
// the capitalised wording operators already know.
func addSequencesError(campaignID int, err error) error {
	return fmt.Errorf("Error adding sequences to campaign %d: %w", campaignID, err) //nolint:staticcheck // ST1005 operator-facing text
}

package followup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSequenceClient struct {
	sequences []smartlead.Sequence
	getErr    error
	addErr    error
	submitted [][]smartlead.SequenceInput
}

func (f *fakeSequenceClient) GetSequences(ctx context.Context, campaignID int) ([]smartlead.Sequence, error) {
	return f.sequences, f.getErr
}

func (f *fakeSequenceClient) AddSequences(ctx context.Context, campaignID int, sequences []smartlead.SequenceInput) error {
	f.submitted = append(f.submitted, sequences)
	return f.addErr
}

func ptr[T any](v T) *T { return &v }

func threeSteps() []smartlead.Sequence {
	return []smartlead.Sequence{
		{
			ID: 11, SeqNumber: 1, Subject: "Intro", EmailBody: "Hello",
			SeqDelayDetails: smartlead.SeqDelayDetails{DelayInDays: 1},
			SequenceVariants: []smartlead.SequenceVariant{
				{ID: 901, Subject: "Intro A", EmailBody: "Hello A", VariantLabel: "A", VariantDistributionPercentage: ptr(60)},
				{ID: 902, Subject: "Intro B", EmailBody: "Hello B", VariantLabel: "B", VariantDistributionPercentage: ptr(40)},
			},
		},
		{ID: 12, SeqNumber: 2, Subject: "", EmailBody: "Bump", SeqDelayDetails: smartlead.SeqDelayDetails{DelayInDays: 2}},
		{ID: 13, SeqNumber: 3, Subject: "", EmailBody: "Last try", SeqDelayDetails: smartlead.SeqDelayDetails{DelayInDays: 3}},
	}
}

func TestBuildFollowUps(t *testing.T) {
	got := BuildFollowUps(threeSteps(), 5)

	want := []smartlead.SequenceInput{
		{
			ID: ptr(11), SeqNumber: 1, Subject: ptr("Intro"), EmailBody: ptr("Hello"),
			SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: 1},
			SeqVariants: []smartlead.VariantInput{
				{ID: ptr(901), Subject: "Intro A", EmailBody: "Hello A", VariantLabel: "A", VariantDistributionPercentage: ptr(60.0)},
				{ID: ptr(902), Subject: "Intro B", EmailBody: "Hello B", VariantLabel: "B", VariantDistributionPercentage: ptr(40.0)},
			},
		},
		{ID: ptr(12), SeqNumber: 2, Subject: ptr(""), EmailBody: ptr("Bump"), SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: 2}},
		{ID: ptr(13), SeqNumber: 3, Subject: ptr(""), EmailBody: ptr("Last try"), SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: 3}},
		{
			SeqNumber: 4, Subject: ptr("Intro"), EmailBody: ptr("Hello"),
			SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: 5},
			SeqVariants: []smartlead.VariantInput{
				{Subject: "Intro A", EmailBody: "Hello A", VariantLabel: "A", VariantDistributionPercentage: ptr(60.0)},
				{Subject: "Intro B", EmailBody: "Hello B", VariantLabel: "B", VariantDistributionPercentage: ptr(40.0)},
			},
		},
		{SeqNumber: 5, Subject: ptr(""), EmailBody: ptr("Bump"), SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: 2}},
		{SeqNumber: 6, Subject: ptr(""), EmailBody: ptr("Last try"), SeqDelayDetails: &smartlead.SeqDelayDetailsInput{DelayInDays: 3}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFollowUps() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFollowUps_DoesNotAliasInput(t *testing.T) {
	in := threeSteps()
	out := BuildFollowUps(in, 0)
	*out[0].Subject = "changed"
	*out[0].SeqVariants[0].ID = 1

	assert.Equal(t, "Intro", in[0].Subject)
	assert.Equal(t, 901, in[0].SequenceVariants[0].ID)
	assert.Equal(t, "Intro", *out[3].Subject)
}

func TestBuildFollowUps_Empty(t *testing.T) {
	assert.Empty(t, BuildFollowUps(nil, 3))
}

func TestDuplicate(t *testing.T) {
	tests := []struct {
		name          string
		client        *fakeSequenceClient
		delay         int
		expected      *int
		wantAdded     bool
		wantSubmitted int
		wantErr       func(error) bool
	}{
		{
			name:          "appends one round",
			client:        &fakeSequenceClient{sequences: threeSteps()},
			delay:         5,
			wantAdded:     true,
			wantSubmitted: 1,
		},
		{
			name:          "already at expected length",
			client:        &fakeSequenceClient{sequences: threeSteps()},
			delay:         5,
			expected:      ptr(3),
			wantSubmitted: 0,
		},
		{
			name:          "below expected length",
			client:        &fakeSequenceClient{sequences: threeSteps()},
			delay:         5,
			expected:      ptr(6),
			wantAdded:     true,
			wantSubmitted: 1,
		},
		{
			name:          "negative delay",
			client:        &fakeSequenceClient{sequences: threeSteps()},
			delay:         -1,
			wantSubmitted: 0,
			wantErr:       domain.IsPrecondition,
		},
		{
			name:          "add fails",
			client:        &fakeSequenceClient{sequences: threeSteps(), addErr: domain.NewHTTPError(400, "Email Server Error with campaigns/7/sequences - Bad Request")},
			delay:         2,
			wantSubmitted: 1,
			wantErr:       domain.IsHTTP,
		},
		{
			name:          "get fails",
			client:        &fakeSequenceClient{getErr: errors.New("boom")},
			delay:         2,
			wantSubmitted: 0,
			wantErr:       func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDuplicator(tt.client, logger.Nop())
			added, err := d.Duplicate(context.Background(), 7, tt.delay, tt.expected)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "got %v", err)
				if !domain.IsPrecondition(err) {
					assert.True(t, strings.HasPrefix(err.Error(), "Error adding sequences to campaign 7: "), "got %v", err)
				}
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAdded, added)
			assert.Len(t, tt.client.submitted, tt.wantSubmitted)
		})
	}
}

func TestDuplicate_IdempotentWithExpectedLength(t *testing.T) {
	client := &fakeSequenceClient{sequences: threeSteps()}
	d := NewDuplicator(client, logger.Nop())

	added, err := d.Duplicate(context.Background(), 7, 4, ptr(6))
	require.NoError(t, err)
	require.True(t, added)

	// the platform now holds both rounds
	client.sequences = append(client.sequences, threeSteps()...)
	added, err = d.Duplicate(context.Background(), 7, 4, ptr(6))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, client.submitted, 1)
}

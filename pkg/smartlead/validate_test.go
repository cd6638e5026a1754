package smartlead

import (
	"strings"
	"testing"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCampaign(t *testing.T) {
	campaign, err := DecodeCampaign([]byte(campaignFixture))
	require.NoError(t, err)

	assert.Equal(t, 101, campaign.ID)
	assert.Equal(t, StatusActive, campaign.Status)
	assert.Equal(t, 100, campaign.FollowUpPercentage)
	require.NotNil(t, campaign.SchedulerCronValue)
	assert.Equal(t, "America/New_York", campaign.SchedulerCronValue.TZ)
	assert.Nil(t, campaign.ParentCampaignID)
}

func TestDecodeCampaign_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown status", strings.Replace(campaignFixture, `"ACTIVE"`, `"RUNNING"`, 1)},
		{"percentage out of range", strings.Replace(campaignFixture, `"follow_up_percentage": 100`, `"follow_up_percentage": 140`, 1)},
		{"wrong type", strings.Replace(campaignFixture, `"id": 101`, `"id": "one-oh-one"`, 1)},
		{"missing id", strings.Replace(campaignFixture, `"id": 101,`, ``, 1)},
		{"not json", `<html>502</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCampaign([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestDecodeCampaigns_RequiresArray(t *testing.T) {
	campaigns, err := DecodeCampaigns([]byte("[" + campaignFixture + "]"))
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)

	_, err = DecodeCampaigns([]byte(`{"error": "nope"}`))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "expected list, got object")
}

func TestDecodeStatistics_StringCounters(t *testing.T) {
	stats, err := DecodeStatistics([]byte(statisticsFixture))
	require.NoError(t, err)

	assert.Equal(t, Count(70), stats.UniqueSentCount)
	assert.Equal(t, Count(100), stats.CampaignLeadStats.Total)
	assert.InDelta(t, 0.70, stats.SentRatio(), 1e-9)
}

func TestCount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw     string
		want    Count
		wantErr bool
	}{
		{`"12"`, 12, false},
		{`12`, 12, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"twelve"`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var c Count
			err := c.UnmarshalJSON([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestSentRatio_NoLeads(t *testing.T) {
	assert.Equal(t, 0.0, Statistics{UniqueSentCount: 5}.SentRatio())
}

func TestDecodeSequences(t *testing.T) {
	sequences, err := DecodeSequences([]byte(sequencesFixture))
	require.NoError(t, err)
	require.Len(t, sequences, 2)

	assert.Equal(t, 1, sequences[0].SeqNumber)
	assert.Equal(t, 1, sequences[0].SeqDelayDetails.DelayInDays)
	require.Len(t, sequences[0].SequenceVariants, 1)
	assert.Equal(t, "A", sequences[0].SequenceVariants[0].VariantLabel)
	assert.Nil(t, sequences[1].SequenceVariants)

	_, err = DecodeSequences([]byte(strings.Replace(sequencesFixture, `"seq_number": 2`, `"seq_number": 0`, 1)))
	assert.True(t, domain.IsValidation(err))
}

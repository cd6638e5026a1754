package smartlead

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	StatusActive    CampaignStatus = "ACTIVE"
	StatusPaused    CampaignStatus = "PAUSED"
	StatusCompleted CampaignStatus = "COMPLETED"
	StatusDrafted   CampaignStatus = "DRAFTED"
	StatusArchived  CampaignStatus = "ARCHIVED"
)

// SchedulerCronValue is a campaign's sending window
type SchedulerCronValue struct {
	TZ        string `json:"tz" validate:"required"`
	Days      []int  `json:"days" validate:"dive,min=0,max=6"`
	StartHour string `json:"startHour"`
	EndHour   string `json:"endHour"`
}

// Campaign is an email outreach campaign
type Campaign struct {
	ID                  int                 `json:"id" validate:"required"`
	UserID              int                 `json:"user_id" validate:"required"`
	CreatedAt           string              `json:"created_at" validate:"required"`
	UpdatedAt           string              `json:"updated_at" validate:"required"`
	Status              CampaignStatus      `json:"status" validate:"required,oneof=ACTIVE PAUSED COMPLETED DRAFTED ARCHIVED"`
	Name                string              `json:"name"`
	TrackSettings       []string            `json:"track_settings"`
	SchedulerCronValue  *SchedulerCronValue `json:"scheduler_cron_value" validate:"omitempty"`
	MinTimeBtwnEmails   int                 `json:"min_time_btwn_emails" validate:"min=0"`
	MaxLeadsPerDay      int                 `json:"max_leads_per_day" validate:"min=0"`
	StopLeadSettings    string              `json:"stop_lead_settings"`
	EnableAIESPMatching bool                `json:"enable_ai_esp_matching"`
	SendAsPlainText     bool                `json:"send_as_plain_text"`
	FollowUpPercentage  int                 `json:"follow_up_percentage" validate:"min=0,max=100"`
	UnsubscribeText     *string             `json:"unsubscribe_text"`
	ParentCampaignID    *int                `json:"parent_campaign_id"`
	ClientID            *int                `json:"client_id"`
}

// Lead is a contact targeted by a campaign
type Lead struct {
	ID              int               `json:"id" validate:"required"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Email           string            `json:"email"`
	PhoneNumber     string            `json:"phone_number"`
	CompanyName     string            `json:"company_name"`
	Website         string            `json:"website"`
	Location        string            `json:"location"`
	CustomFields    map[string]string `json:"custom_fields"`
	LinkedinProfile string            `json:"linkedin_profile"`
	CompanyURL      string            `json:"company_url"`
	IsUnsubscribed  bool              `json:"is_unsubscribed"`
}

// CampaignLead is the mapping record joining a lead to a campaign
type CampaignLead struct {
	CampaignLeadMapID int       `json:"campaign_lead_map_id" validate:"required"`
	Status            string    `json:"status"`
	LeadCategoryID    *int      `json:"lead_category_id"`
	CreatedAt         time.Time `json:"created_at"`
	Lead              Lead      `json:"lead"`
}

// LeadsPage is one page of the campaign leads listing
type LeadsPage struct {
	TotalLeads int            `json:"total_leads" validate:"min=0"`
	Offset     int            `json:"offset" validate:"min=0"`
	Limit      int            `json:"limit" validate:"min=0"`
	Data       []CampaignLead `json:"data" validate:"dive"`
}

// Count is a counter the analytics endpoint encodes as either a string or a number
type Count int

// UnmarshalJSON accepts "12", 12 and null
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*c = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("count %q is not an integer", s)
		}
		*c = Count(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Count(n)
	return nil
}

// LeadStats are per-status lead counts of a campaign
type LeadStats struct {
	Total      Count `json:"total" validate:"min=0"`
	Paused     Count `json:"paused"`
	Blocked    Count `json:"blocked"`
	Stopped    Count `json:"stopped"`
	Completed  Count `json:"completed"`
	InProgress Count `json:"inprogress"`
	Interested Count `json:"interested"`
	NotStarted Count `json:"notStarted"`
}

// Statistics is a campaign's analytics summary
type Statistics struct {
	ID                int            `json:"id" validate:"required"`
	UserID            int            `json:"user_id"`
	CreatedAt         string         `json:"created_at"`
	Status            CampaignStatus `json:"status" validate:"omitempty,oneof=ACTIVE PAUSED COMPLETED DRAFTED ARCHIVED"`
	Name              string         `json:"name"`
	SentCount         Count          `json:"sent_count"`
	OpenCount         Count          `json:"open_count"`
	ClickCount        Count          `json:"click_count"`
	ReplyCount        Count          `json:"reply_count"`
	BlockCount        Count          `json:"block_count"`
	TotalCount        Count          `json:"total_count"`
	SequenceCount     Count          `json:"sequence_count"`
	DraftedCount      Count          `json:"drafted_count"`
	BounceCount       Count          `json:"bounce_count"`
	UnsubscribedCount Count          `json:"unsubscribed_count"`
	UniqueOpenCount   Count          `json:"unique_open_count"`
	UniqueClickCount  Count          `json:"unique_click_count"`
	UniqueSentCount   Count          `json:"unique_sent_count" validate:"min=0"`
	ClientID          *int           `json:"client_id"`
	ClientName        *string        `json:"client_name"`
	ClientEmail       *string        `json:"client_email"`
	CampaignLeadStats LeadStats      `json:"campaign_lead_stats"`
}

// SentRatio is unique sent count over total mapped leads, 0 when there are no leads
func (s Statistics) SentRatio() float64 {
	total := int(s.CampaignLeadStats.Total)
	if total == 0 {
		return 0
	}
	return float64(s.UniqueSentCount) / float64(total)
}

// SeqDelayDetails is the delay before a sequence step is sent
type SeqDelayDetails struct {
	DelayInDays int `json:"delayInDays" validate:"min=0"`
}

// SequenceVariant is one A/B variant of a sequence step
type SequenceVariant struct {
	ID                            int       `json:"id" validate:"required"`
	CreatedAt                     time.Time `json:"created_at"`
	UpdatedAt                     time.Time `json:"updated_at"`
	IsDeleted                     bool      `json:"is_deleted"`
	Subject                       string    `json:"subject"`
	EmailBody                     string    `json:"email_body"`
	EmailCampaignSeqID            int       `json:"email_campaign_seq_id"`
	VariantLabel                  string    `json:"variant_label"`
	OptionalEmailBody1            *string   `json:"optional_email_body_1"`
	VariantDistributionPercentage *int      `json:"variant_distribution_percentage" validate:"omitempty,min=0,max=100"`
	Year                          int       `json:"year"`
}

// Sequence is one step of a campaign's send schedule
type Sequence struct {
	ID               int               `json:"id" validate:"required"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	EmailCampaignID  int               `json:"email_campaign_id"`
	SeqNumber        int               `json:"seq_number" validate:"min=1"`
	Subject          string            `json:"subject"`
	EmailBody        string            `json:"email_body"`
	SeqDelayDetails  SeqDelayDetails   `json:"seq_delay_details"`
	SequenceVariants []SequenceVariant `json:"sequence_variants" validate:"omitempty,dive"`
}

// SeqDelayDetailsInput is the delay of a submitted sequence step
type SeqDelayDetailsInput struct {
	DelayInDays int `json:"delay_in_days"`
}

// VariantInput is a submitted sequence variant. A nil ID creates a new variant.
type VariantInput struct {
	ID                            *int     `json:"id,omitempty"`
	Subject                       string   `json:"subject"`
	EmailBody                     string   `json:"email_body"`
	VariantLabel                  string   `json:"variant_label"`
	VariantDistributionPercentage *float64 `json:"variant_distribution_percentage,omitempty"`
}

// SequenceInput is a submitted sequence step. A nil ID creates a new step.
type SequenceInput struct {
	ID              *int                  `json:"id,omitempty"`
	SeqNumber       int                   `json:"seq_number"`
	Subject         *string               `json:"subject,omitempty"`
	EmailBody       *string               `json:"email_body,omitempty"`
	SeqDelayDetails *SeqDelayDetailsInput `json:"seq_delay_details,omitempty"`
	SeqVariants     []VariantInput        `json:"seq_variants,omitempty"`
}

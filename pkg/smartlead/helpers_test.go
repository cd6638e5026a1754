package smartlead

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
)

const campaignFixture = `{
  "id": 101,
  "user_id": 7,
  "created_at": "2024-05-01T10:00:00.000Z",
  "updated_at": "2024-05-02T10:00:00.000Z",
  "status": "ACTIVE",
  "name": "Dental US",
  "track_settings": ["DONT_TRACK_EMAIL_OPEN"],
  "scheduler_cron_value": {"tz": "America/New_York", "days": [1, 2, 3, 4, 5], "startHour": "09:00", "endHour": "17:00"},
  "min_time_btwn_emails": 10,
  "max_leads_per_day": 100,
  "stop_lead_settings": "REPLY_TO_AN_EMAIL",
  "enable_ai_esp_matching": false,
  "send_as_plain_text": false,
  "follow_up_percentage": 100,
  "unsubscribe_text": null,
  "parent_campaign_id": null,
  "client_id": null
}`

const statisticsFixture = `{
  "id": 101,
  "user_id": 7,
  "created_at": "2024-05-01T10:00:00.000Z",
  "status": "ACTIVE",
  "name": "Dental US",
  "sent_count": "140",
  "open_count": "30",
  "click_count": "2",
  "reply_count": "4",
  "block_count": "0",
  "total_count": "200",
  "sequence_count": "3",
  "drafted_count": "0",
  "bounce_count": "1",
  "unsubscribed_count": "0",
  "unique_open_count": "25",
  "unique_click_count": "2",
  "unique_sent_count": "70",
  "client_id": null,
  "client_name": null,
  "client_email": null,
  "campaign_lead_stats": {"total": 100, "paused": 0, "blocked": 0, "stopped": 0, "completed": 10, "inprogress": 60, "interested": 2, "notStarted": 28}
}`

const sequencesFixture = `[
  {
    "id": 11, "created_at": "2024-05-01T10:00:00.000Z", "updated_at": "2024-05-01T10:00:00.000Z",
    "email_campaign_id": 101, "seq_number": 1, "subject": "Hello", "email_body": "<p>Hi</p>",
    "seq_delay_details": {"delayInDays": 1},
    "sequence_variants": [
      {"id": 900, "created_at": "2024-05-01T10:00:00.000Z", "updated_at": "2024-05-01T10:00:00.000Z",
       "is_deleted": false, "subject": "Hello A", "email_body": "A", "email_campaign_seq_id": 11,
       "variant_label": "A", "variant_distribution_percentage": 50, "year": 2024}
    ]
  },
  {
    "id": 12, "created_at": "2024-05-01T10:00:00.000Z", "updated_at": "2024-05-01T10:00:00.000Z",
    "email_campaign_id": 101, "seq_number": 2, "subject": "", "email_body": "<p>Bump</p>",
    "seq_delay_details": {"delayInDays": 3},
    "sequence_variants": null
  }
]`

// newTestClient points every Smartlead surface at one httptest server
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		APIKey:        "test-key",
		InternalToken: "test-token",
		BaseURL:       srv.URL + "/api/v1/",
		InternalURL:   srv.URL + "/api/",
		GraphQLURL:    srv.URL + "/graphql",
		Timeout:       5 * time.Second,
		PageRetry:     PageRetry{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}, logger.Nop(), metrics.NewNop())
	return client, srv
}

// leadsPageJSON renders a page of n leads starting after offset
func leadsPageJSON(total, offset, n int) []byte {
	data := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := offset + i + 1
		data = append(data, map[string]any{
			"campaign_lead_map_id": 5000 + id,
			"status":               "INPROGRESS",
			"lead_category_id":     nil,
			"created_at":           "2024-05-01T10:00:00.000Z",
			"lead": map[string]any{
				"id":               id,
				"first_name":       "Lead",
				"last_name":        fmt.Sprint(id),
				"email":            fmt.Sprintf("lead%d@example.com", id),
				"phone_number":     "",
				"company_name":     "Acme",
				"website":          "",
				"location":         "Austin, TX",
				"custom_fields":    map[string]string{},
				"linkedin_profile": "",
				"company_url":      "",
				"is_unsubscribed":  false,
			},
		})
	}
	raw, _ := json.Marshal(map[string]any{
		"total_leads": total,
		"offset":      offset,
		"limit":       100,
		"data":        data,
	})
	return raw
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

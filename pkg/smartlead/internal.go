package smartlead

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const updateCampaignMutation = `
mutation updateCampaignById($id: Int!, $changes: email_campaigns_set_input!) {
  update_email_campaigns_by_pk(pk_columns: {id: $id}, _set: $changes) {
    id
    __typename
  }
}`

// updateCampaignOperation is the operation name taken from the parsed mutation document
var updateCampaignOperation = mustOperationName(updateCampaignMutation, ast.Mutation)

func mustOperationName(document string, want ast.Operation) string {
	doc, err := parser.ParseQuery(&ast.Source{Name: "smartlead", Input: document})
	if err != nil {
		panic(fmt.Sprintf("smartlead: invalid GraphQL document: %v", err))
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Operation != want || doc.Operations[0].Name == "" {
		panic("smartlead: GraphQL document must hold exactly one named " + string(want))
	}
	return doc.Operations[0].Name
}

// DeleteLeads removes leads from a campaign. leadIDs and leadMapIDs correspond
// positionally to the same lead.
func (cl *Client) DeleteLeads(ctx context.Context, campaignID int, leadIDs, leadMapIDs []int) (map[string]any, error) {
	if len(leadIDs) != len(leadMapIDs) {
		return nil, domain.NewPreconditionError(fmt.Sprintf(
			"emailLeadIds and emailLeadMapIds must have the same length (%d != %d)",
			len(leadIDs), len(leadMapIDs)))
	}

	raw, err := cl.do(ctx, call{
		api:      internalAPI,
		method:   http.MethodPost,
		endpoint: "email-campaigns/delete-email-campaign-multiple-leads",
		body: map[string]any{
			"campaignId":      fmt.Sprint(campaignID),
			"emailLeadIds":    nonNil(leadIDs),
			"emailLeadMapIds": nonNil(leadMapIDs),
		},
	})
	if err != nil {
		return nil, err
	}

	ack := map[string]any{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, domain.NewValidationError("invalid delete leads acknowledgement", err)
		}
	}
	return ack, nil
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type updateCampaignResponse struct {
	Data struct {
		UpdateEmailCampaignsByPK *struct {
			ID       int    `json:"id"`
			Typename string `json:"__typename"`
		} `json:"update_email_campaigns_by_pk"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// UpdateFollowUpPercentage sets the share of contacts that receive follow-ups and
// returns the updated campaign id
func (cl *Client) UpdateFollowUpPercentage(ctx context.Context, campaignID, percentage int) (int, error) {
	if percentage < 0 || percentage > 100 {
		return 0, domain.NewPreconditionError(fmt.Sprintf("follow-up percentage must be between 0 and 100, got %d", percentage))
	}

	raw, err := cl.do(ctx, call{
		api:      graphqlAPI,
		method:   http.MethodPost,
		endpoint: "graphql",
		body: graphqlRequest{
			Query: updateCampaignMutation,
			Variables: map[string]any{
				"id":      campaignID,
				"changes": map[string]any{"follow_up_percentage": percentage},
			},
			OperationName: updateCampaignOperation,
		},
	})
	if err != nil {
		return 0, err
	}

	var resp updateCampaignResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, domain.NewValidationError("invalid GraphQL response", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return 0, domain.NewHTTPError(http.StatusOK, "Email Server Error with GraphQL - "+strings.Join(msgs, "; "))
	}
	if resp.Data.UpdateEmailCampaignsByPK == nil {
		return 0, domain.NewNotFoundError(fmt.Sprintf("campaign %d", campaignID))
	}
	return resp.Data.UpdateEmailCampaignsByPK.ID, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

package smartlead

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

func TestDeleteLeads_MismatchedLengthsSendNothing(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := client.DeleteLeads(context.Background(), 101, []int{1, 2}, []int{10})
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
	assert.Zero(t, hits.Load())
}

func TestDeleteLeads_Body(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/email-campaigns/delete-email-campaign-multiple-leads", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("api_key"))

		var body map[string]any
		assert.NoError(t, decodeBody(r, &body))
		assert.Equal(t, "101", body["campaignId"])
		assert.Equal(t, []any{float64(1), float64(2)}, body["emailLeadIds"])
		assert.Equal(t, []any{float64(10), float64(20)}, body["emailLeadMapIds"])

		_, _ = w.Write([]byte(`{"ok": true, "deleted": 2}`))
	}))

	ack, err := client.DeleteLeads(context.Background(), 101, []int{1, 2}, []int{10, 20})
	require.NoError(t, err)
	assert.Equal(t, true, ack["ok"])
}

func TestDeleteLeads_EmptyListsAreArrays(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, decodeBody(r, &body))
		assert.Equal(t, []any{}, body["emailLeadIds"])
		w.WriteHeader(http.StatusOK)
	}))

	ack, err := client.DeleteLeads(context.Background(), 101, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ack)
}

func TestDeleteLeads_UpstreamError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "Forbidden", "message": "token expired"}`))
	}))

	_, err := client.DeleteLeads(context.Background(), 101, []int{1}, []int{10})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, domain.StatusOf(err))
	assert.Contains(t, err.Error(),
		"Email Server Error with email-campaigns/delete-email-campaign-multiple-leads - Forbidden : token expired")
}

func TestUpdateFollowUpPercentage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body graphqlRequest
		assert.NoError(t, decodeBody(r, &body))
		assert.Equal(t, "updateCampaignById", body.OperationName)
		assert.Equal(t, float64(101), body.Variables["id"])
		assert.Equal(t, map[string]any{"follow_up_percentage": float64(90)}, body.Variables["changes"])

		_, _ = w.Write([]byte(`{"data": {"update_email_campaigns_by_pk": {"id": 101, "__typename": "email_campaigns"}}}`))
	}))

	id, err := client.UpdateFollowUpPercentage(context.Background(), 101, 90)
	require.NoError(t, err)
	assert.Equal(t, 101, id)
}

func TestUpdateFollowUpPercentage_OutOfRange(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, pct := range []int{-1, 101} {
		_, err := client.UpdateFollowUpPercentage(context.Background(), 101, pct)
		assert.True(t, domain.IsPrecondition(err), "percentage %d", pct)
	}
	assert.Zero(t, hits.Load())
}

func TestUpdateFollowUpPercentage_GraphQLErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		check    func(error) bool
		contains string
	}{
		{
			name:     "errors array",
			status:   http.StatusOK,
			body:     `{"errors": [{"message": "permission denied"}, {"message": "field not found"}]}`,
			check:    domain.IsHTTP,
			contains: "Email Server Error with GraphQL - permission denied; field not found",
		},
		{
			name:     "null row",
			status:   http.StatusOK,
			body:     `{"data": {"update_email_campaigns_by_pk": null}}`,
			check:    domain.IsNotFound,
			contains: "campaign 101 not found",
		},
		{
			name:     "transport status",
			status:   http.StatusBadGateway,
			body:     `{"error": "Bad Gateway"}`,
			check:    domain.IsHTTP,
			contains: "Email Server Error with GraphQL - Bad Gateway",
		},
		{
			name:     "not json",
			status:   http.StatusOK,
			body:     `<html></html>`,
			check:    domain.IsValidation,
			contains: "invalid GraphQL response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := client.UpdateFollowUpPercentage(context.Background(), 101, 90)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestMustOperationName(t *testing.T) {
	assert.Equal(t, "updateCampaignById", updateCampaignOperation)

	assert.Panics(t, func() { mustOperationName(`mutation { broken`, ast.Mutation) })
	assert.Panics(t, func() { mustOperationName(`query named { id }`, ast.Mutation) })
	assert.Panics(t, func() { mustOperationName(`mutation { id }`, ast.Mutation) })
}

package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrSlackSendFailed is returned when Slack API fails
	ErrSlackSendFailed = errors.New("failed to send Slack notification")
)

// Message represents a Slack message
type Message struct {
	Text string `json:"text"`
}

// SlackClient is an interface for sending Slack notifications
type SlackClient interface {
	SendMessage(ctx context.Context, msg Message) error
}

// WebhookClient implements SlackClient using Slack webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a new Slack webhook client
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendMessage sends a message to Slack via webhook
func (c *WebhookClient) SendMessage(ctx context.Context, msg Message) error {
	if c.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrSlackSendFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrSlackSendFailed
	}

	return nil
}

// Service handles Slack notifications
type Service struct {
	client SlackClient
}

// NewService creates a new Slack service. A nil client disables notifications.
func NewService(client SlackClient) *Service {
	return &Service{
		client: client,
	}
}

// IsEnabled returns true if Slack notifications are enabled
func (s *Service) IsEnabled() bool {
	return s != nil && s.client != nil
}

// NotifyFollowUpsComplete reports the outcome of a follow-up batch
func (s *Service) NotifyFollowUpsComplete(ctx context.Context, successful, failed []string) error {
	if !s.IsEnabled() {
		return nil // Silently skip if not enabled
	}

	text := fmt.Sprintf("📬 *Follow-ups Added*\n"+
		"• Successful: %d\n"+
		"• Failed: %d",
		len(successful), len(failed))

	if len(failed) > 0 {
		text += "\n• Failed campaigns:\n  " + strings.Join(failed, "\n  ")
	}

	msg := Message{Text: text}
	return s.client.SendMessage(ctx, msg)
}

// NotifyLeadsRemoved reports leads deleted from a campaign after classification
func (s *Service) NotifyLeadsRemoved(ctx context.Context, campaignLabel string, removed int, artifactURL string) error {
	if !s.IsEnabled() {
		return nil
	}

	text := fmt.Sprintf("🧹 *Leads Removed*\n"+
		"• Campaign: %s\n"+
		"• Leads: %d",
		campaignLabel, removed)

	if artifactURL != "" {
		text += fmt.Sprintf("\n• Archive: %s", artifactURL)
	}

	msg := Message{Text: text}
	return s.client.SendMessage(ctx, msg)
}

package smartlead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
)

const (
	DefaultBaseURL     = "https://server.smartlead.ai/api/v1/"
	DefaultInternalURL = "https://server.smartlead.ai/api/"
	DefaultGraphQLURL  = "https://fe-gql.smartlead.ai/v1/graphql"
	DefaultTimeout     = 30 * time.Second
)

// Config for the Smartlead client
type Config struct {
	APIKey        string // public API, sent as the api_key query parameter
	InternalToken string // internal REST and GraphQL, sent as a bearer token
	BaseURL       string
	InternalURL   string
	GraphQLURL    string
	Timeout       time.Duration // default: 30s
	PageRetry     PageRetry
	HTTPClient    *http.Client // overrides Timeout when set
}

// Client talks to the Smartlead public REST API and its internal REST/GraphQL APIs
type Client struct {
	cfg     Config
	http    *http.Client
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewClient creates a new Smartlead client
func NewClient(cfg Config, log logger.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.InternalURL == "" {
		cfg.InternalURL = DefaultInternalURL
	}
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = DefaultGraphQLURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.PageRetry = cfg.PageRetry.withDefaults()
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		logger:  log.With("component", "smartlead"),
		metrics: m,
	}
}

type apiKind int

const (
	publicAPI apiKind = iota
	internalAPI
	graphqlAPI
)

// call describes one request against one of the three Smartlead surfaces
type call struct {
	api      apiKind
	method   string
	endpoint string // path relative to the surface base URL; label only for GraphQL
	query    url.Values
	body     any
}

// do executes c and returns the raw 2xx response body
func (cl *Client) do(ctx context.Context, c call) ([]byte, error) {
	label := c.endpoint
	if c.api == graphqlAPI {
		label = "GraphQL"
	}
	start := time.Now()

	req, err := cl.newRequest(ctx, c)
	if err != nil {
		outcome := "request_error"
		if domain.IsConfiguration(err) {
			outcome = "config_error"
		}
		cl.metrics.RecordSmartleadCall(metricEndpoint(c.endpoint), outcome, time.Since(start))
		return nil, err
	}

	resp, err := cl.http.Do(req)
	if err != nil {
		cl.metrics.RecordSmartleadCall(metricEndpoint(c.endpoint), "network_error", time.Since(start))
		return nil, domain.NewNetworkError(fmt.Sprintf("Email Server Error with %s", label), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		cl.metrics.RecordSmartleadCall(metricEndpoint(c.endpoint), "network_error", time.Since(start))
		return nil, domain.NewNetworkError(fmt.Sprintf("Email Server Error with %s", label), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cl.metrics.RecordSmartleadCall(metricEndpoint(c.endpoint), "http_error", time.Since(start))
		return nil, domain.NewHTTPError(resp.StatusCode, errorMessage(label, resp.StatusCode, raw))
	}

	cl.metrics.RecordSmartleadCall(metricEndpoint(c.endpoint), "ok", time.Since(start))
	cl.logger.Debug("smartlead call completed",
		"method", c.method,
		"endpoint", label,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	return raw, nil
}

func (cl *Client) newRequest(ctx context.Context, c call) (*http.Request, error) {
	var (
		base  string
		query = url.Values{}
	)
	for k, vs := range c.query {
		query[k] = vs
	}

	headers := http.Header{}
	switch c.api {
	case publicAPI:
		if cl.cfg.APIKey == "" {
			return nil, domain.NewConfigurationError("missing SMARTLEAD_API_KEY")
		}
		base = cl.cfg.BaseURL
		query.Set("api_key", cl.cfg.APIKey)
	case internalAPI, graphqlAPI:
		if cl.cfg.InternalToken == "" {
			return nil, domain.NewConfigurationError("missing SMARTLEAD_INTERNAL_API_TOKEN")
		}
		base = cl.cfg.InternalURL
		headers.Set("Authorization", "Bearer "+cl.cfg.InternalToken)
	}

	target := cl.cfg.GraphQLURL
	if c.api != graphqlAPI {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(c.endpoint, "/")
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
		headers.Set("Content-Type", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(c.method), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = headers
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// errorMessage folds the error/message fields of a JSON error body into one line
func errorMessage(label string, status int, raw []byte) string {
	fallback := fmt.Sprintf("%d %s", status, http.StatusText(status))

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 512 {
			fallback = fallback + ": " + text
		}
		return fmt.Sprintf("Email Server Error with %s - %s", label, fallback)
	}

	errMsg := fallback
	if v, ok := body["error"]; ok && v != nil {
		errMsg = fmt.Sprint(v)
	}
	msg := fmt.Sprintf("Email Server Error with %s - %s", label, errMsg)
	if v, ok := body["message"]; ok && v != nil {
		msg += " : " + fmt.Sprint(v)
	}
	return msg
}

// metricEndpoint collapses ids out of a path so metric cardinality stays bounded
func metricEndpoint(endpoint string) string {
	parts := strings.Split(strings.Trim(endpoint, "/"), "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// Package workflow dispatches named automations to the external workflow
// engine and verifies its signed callbacks.
package workflow

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/tollgate/internal/config"
	"go.uber.org/zap"
)

var (
	ErrDispatchFailed   = errors.New("workflow_dispatch_failed")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrNotConfigured    = errors.New("workflow_engine_not_configured")
)

const dispatchTimeout = 30 * time.Second

type TriggerResponse struct {
	ExecutionID string         `json:"executionId"`
	Data        map[string]any `json:"-"`
}

type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
	log           *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.WorkflowBaseURL, "/"),
		apiKey:        cfg.WorkflowAPIKey,
		webhookSecret: cfg.WorkflowWebhookSecret,
		httpClient:    &http.Client{Timeout: dispatchTimeout},
		log:           log.Named("workflow"),
	}
	if c.baseURL == "" || c.apiKey == "" {
		c.log.Warn("workflow engine not configured; dispatches will fail")
	}
	return c
}

// Trigger invokes a workflow synchronously. A non-2xx response or transport
// failure yields ErrDispatchFailed wrapped with the workflow name; there is
// no retry here, callers own their own retry policy.
func (c *Client) Trigger(ctx context.Context, name string, payload map[string]any) (*TriggerResponse, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDispatchFailed, name)
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/webhook/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDispatchFailed, name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Workflow-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDispatchFailed, name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrDispatchFailed, name)
	}

	var raw map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&raw)

	executionID := "unknown"
	if id, ok := raw["executionId"].(string); ok && id != "" {
		executionID = id
	}
	return &TriggerResponse{ExecutionID: executionID, Data: raw}, nil
}

// TriggerAsync fires a workflow without blocking the caller. Failures are
// logged and dropped; they never reach the initiating request.
func (c *Client) TriggerAsync(name string, payload map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if _, err := c.Trigger(ctx, name, payload); err != nil {
			c.log.Warn("async workflow dispatch failed",
				zap.String("workflow", name),
				zap.Error(err),
			)
		}
	}()
}

// VerifySignature checks an inbound callback's HMAC-SHA256 hex signature over
// the raw body, in constant time.
func (c *Client) VerifySignature(signature string, body []byte) error {
	if c.webhookSecret == "" {
		c.log.Warn("workflow webhook secret not configured")
		return ErrInvalidSignature
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	_, _ = mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

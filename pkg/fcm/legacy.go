package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

const (
	// DefaultLegacyEndpoint is the legacy batch send API
	DefaultLegacyEndpoint = "https://fcm.googleapis.com/fcm/send"

	// legacyBatchLimit is the provider's hard cap on registration ids per request
	legacyBatchLimit = 500
)

// LegacyClient sends notifications through the legacy key-authenticated API,
// many device tokens per HTTP call.
type LegacyClient struct {
	httpClient *http.Client
	Endpoint   string
}

// NewLegacyClient creates a client against the default legacy endpoint
func NewLegacyClient(httpClient *http.Client) *LegacyClient {
	return &LegacyClient{
		httpClient: httpClient,
		Endpoint:   DefaultLegacyEndpoint,
	}
}

type legacyNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Image       string `json:"image,omitempty"`
	ClickAction string `json:"click_action,omitempty"`
}

type legacyRequest struct {
	RegistrationIDs []string           `json:"registration_ids"`
	Priority        string             `json:"priority"`
	Notification    legacyNotification `json:"notification"`
	Data            map[string]string  `json:"data,omitempty"`
}

type legacyResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error,omitempty"`
	} `json:"results"`
}

// Send delivers the notification to all tokens in chunks of 500, preserving
// order. A failed chunk counts all of its tokens as failures and processing
// continues with the next chunk; partial success across chunks is expected.
func (c *LegacyClient) Send(ctx context.Context, apiKey string, tokens []string, notification Notification) Result {
	var result Result

	for start := 0; start < len(tokens); start += legacyBatchLimit {
		end := start + legacyBatchLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		c.sendChunk(ctx, apiKey, tokens[start:end], notification, &result)
	}

	log.Printf("[FCM] Legacy send done: %d success, %d failures across %d tokens", result.SuccessCount, result.FailureCount, len(tokens))
	return result
}

func (c *LegacyClient) sendChunk(ctx context.Context, apiKey string, chunk []string, notification Notification, result *Result) {
	payload := legacyRequest{
		RegistrationIDs: chunk,
		Priority:        "high",
		Notification: legacyNotification{
			Title:       notification.Title,
			Body:        notification.Body,
			Image:       notification.ImageURL,
			ClickAction: notification.ClickAction,
		},
	}
	if len(notification.Data) > 0 {
		payload.Data = notification.Data
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result.FailureCount += len(chunk)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to encode request: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		result.FailureCount += len(chunk)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to build request: %v", err))
		return
	}
	req.Header.Set("Authorization", "key="+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.FailureCount += len(chunk)
		result.Errors = append(result.Errors, truncateBody(fmt.Sprintf("send request failed: %v", err)))
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.FailureCount += len(chunk)
		result.Errors = append(result.Errors, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateBody(string(respBody))))
		return
	}

	var summary legacyResponse
	if err := json.Unmarshal(respBody, &summary); err != nil {
		result.FailureCount += len(chunk)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to decode response: %v", err))
		return
	}

	result.SuccessCount += summary.Success
	result.FailureCount += summary.Failure

	// results are positionally aligned with the chunk's registration ids
	for i, r := range summary.Results {
		if r.Error == "" || i >= len(chunk) {
			continue
		}
		result.Errors = append(result.Errors, fmt.Sprintf("%s (token ...%s)", r.Error, tokenSuffix(chunk[i])))
	}
}

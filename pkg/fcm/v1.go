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

// DefaultV1EndpointFormat is the per-project v1 send API, one token per call
const DefaultV1EndpointFormat = "https://fcm.googleapis.com/v1/projects/%s/messages:send"

// V1Client sends notifications through the OAuth-credentialed v1 API. The
// protocol has no batch form, so each token costs one HTTP call; the loop is
// strictly sequential.
type V1Client struct {
	httpClient     *http.Client
	EndpointFormat string
	Tokens         *TokenManager
}

// NewV1Client creates a client against the default v1 endpoint
func NewV1Client(httpClient *http.Client, tokens *TokenManager) *V1Client {
	return &V1Client{
		httpClient:     httpClient,
		EndpointFormat: DefaultV1EndpointFormat,
		Tokens:         tokens,
	}
}

type v1Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image,omitempty"`
}

type v1Message struct {
	Token        string            `json:"token"`
	Notification v1Notification    `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type v1Request struct {
	Message v1Message `json:"message"`
}

// Send delivers the notification token by token. The bearer token is obtained
// once per call, not once per device token. Per-token failures are counted
// and recorded; only a failed credential exchange aborts the whole send.
func (c *V1Client) Send(ctx context.Context, account ServiceAccount, tokens []string, notification Notification) (Result, error) {
	if account.ProjectID == "" {
		return Result{}, ErrNoProjectID
	}

	bearer, err := c.Tokens.AccessToken(ctx, account)
	if err != nil {
		return Result{}, err
	}

	endpoint := fmt.Sprintf(c.EndpointFormat, account.ProjectID)
	data := v1Data(notification)

	var result Result
	for _, token := range tokens {
		c.sendOne(ctx, endpoint, bearer, token, notification, data, &result)
	}

	log.Printf("[FCM] V1 send done for project %s: %d success, %d failures", account.ProjectID, result.SuccessCount, result.FailureCount)
	return result, nil
}

// v1Data merges the click action into the data payload; the v1 notification
// block has no click_action field, clients read it from data instead
func v1Data(notification Notification) map[string]string {
	if notification.ClickAction == "" {
		return notification.Data
	}
	data := make(map[string]string, len(notification.Data)+1)
	for k, v := range notification.Data {
		data[k] = v
	}
	data["click_action"] = notification.ClickAction
	return data
}

func (c *V1Client) sendOne(ctx context.Context, endpoint, bearer, token string, notification Notification, data map[string]string, result *Result) {
	payload := v1Request{
		Message: v1Message{
			Token: token,
			Notification: v1Notification{
				Title: notification.Title,
				Body:  notification.Body,
				Image: notification.ImageURL,
			},
			Data: data,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		result.FailureCount++
		result.Errors = append(result.Errors, fmt.Sprintf("token ...%s: failed to encode request: %v", tokenSuffix(token), err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		result.FailureCount++
		result.Errors = append(result.Errors, fmt.Sprintf("token ...%s: failed to build request: %v", tokenSuffix(token), err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.FailureCount++
		result.Errors = append(result.Errors, truncateBody(fmt.Sprintf("token ...%s: send request failed: %v", tokenSuffix(token), err)))
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.FailureCount++
		result.Errors = append(result.Errors, fmt.Sprintf("token ...%s: HTTP %d: %s", tokenSuffix(token), resp.StatusCode, truncateBody(string(respBody))))
		return
	}

	result.SuccessCount++
}

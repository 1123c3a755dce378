package fcm

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Notification contains the rendered content to send in a push notification
type Notification struct {
	Title    string
	Body     string
	ImageURL string            // Optional notification image
	Data     map[string]string // Custom data payload
	// Click action
	ClickAction string // URL to open when notification is clicked
}

// Result aggregates the outcome of one dispatch across all device tokens.
// Errors holds short diagnostic lines in send order; token values only ever
// appear as their last 8 characters.
type Result struct {
	SuccessCount int
	FailureCount int
	Errors       []string
}

// Credential is the dispatch-capable credential material carried by a
// provider config. It is a closed set: APIKey (legacy protocol) or
// ServiceAccount (modern protocol).
type Credential interface {
	isCredential()
}

// APIKey is a static server key for the legacy batch send API
type APIKey struct {
	Key string
}

func (APIKey) isCredential() {}

// ServiceAccount is a parsed service-account credential for the v1 send API.
// ProjectID is the already-resolved target project (config override applied).
type ServiceAccount struct {
	ConfigID    string // cache key for issued access tokens
	ClientEmail string
	PrivateKey  string // PEM-encoded RSA key
	ProjectID   string
}

func (ServiceAccount) isCredential() {}

var (
	// ErrNoUsableCredential means the provider config carries neither a
	// legacy key nor a service-account credential
	ErrNoUsableCredential = errors.New("provider config has no usable credential")

	// ErrNoProjectID means neither the config nor the service-account
	// credential named a target project for the v1 API
	ErrNoProjectID = errors.New("no project id configured for v1 send")
)

const defaultTimeout = 15 * time.Second

// Dispatcher routes a send to the legacy or the v1 client based on the
// credential material. No fallback between protocols: a broken modern
// credential does not retry over the legacy API.
type Dispatcher struct {
	Legacy *LegacyClient
	V1     *V1Client
}

// NewDispatcher creates a dispatcher with both protocol clients sharing one
// HTTP client. A nil httpClient gets a bounded default timeout so a task
// execution cannot hang on a single provider call.
func NewDispatcher(httpClient *http.Client) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Dispatcher{
		Legacy: NewLegacyClient(httpClient),
		V1:     NewV1Client(httpClient, NewTokenManager(httpClient)),
	}
}

// Dispatch sends the notification to all tokens through the protocol the
// credential selects. ServiceAccount always wins the routing decision; the
// precedence between coexisting credential materials is applied where the
// provider config is converted to a Credential.
func (d *Dispatcher) Dispatch(ctx context.Context, cred Credential, tokens []string, notification Notification) (Result, error) {
	switch c := cred.(type) {
	case ServiceAccount:
		return d.V1.Send(ctx, c, tokens, notification)
	case APIKey:
		return d.Legacy.Send(ctx, c.Key, tokens, notification), nil
	default:
		return Result{}, ErrNoUsableCredential
	}
}

const maxErrorBody = 200

// truncateBody bounds provider error bodies before they reach logs or task records
func truncateBody(body string) string {
	if len(body) > maxErrorBody {
		return body[:maxErrorBody]
	}
	return body
}

// tokenSuffix returns the last 8 characters of a device token for diagnostics.
// Full tokens are never logged.
func tokenSuffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[len(token)-8:]
}

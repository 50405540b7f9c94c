package chatkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/01cderx/Chat-ai/internal/domain"
)

// credentialsPayload is the expected JSON shape stored in SSM for the
// chat-platform credentials.
type credentialsPayload struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("chatkit: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the chat platform's REST API. The platform is both the
// identity registry and the pub/sub delivery surface, so the client covers
// user queries and upserts as well as channel provisioning and publishing.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	credsOnce sync.Once
	apiKey    string
	apiSecret string
	credsErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client backed by the given paramstore Getter for
// credential retrieval. Credentials are fetched from SSM on the first call
// and reused for the lifetime of the process.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("chatkit: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("chatkit: parameter prefix must not be empty")
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		return nil, errors.New("chatkit: base URL must not be empty")
	}
	return c, nil
}

func (c *Client) credentialsParameterName() string {
	return c.paramPrefix + "/chatkit-credentials"
}

// resolveCredentials fetches the API key and secret from SSM on the first
// call and returns the cached pair on every subsequent call.
func (c *Client) resolveCredentials(ctx context.Context) (key, secret string, err error) {
	c.credsOnce.Do(func() {
		c.apiKey, c.apiSecret, c.credsErr = fetchCredentialsFromParamStore(ctx, c.getter, c.credentialsParameterName())
	})
	return c.apiKey, c.apiSecret, c.credsErr
}

// serverToken signs a short server-side JWT the platform accepts for
// backend-to-backend calls.
func serverToken(secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
		"iat":    jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("chatkit: sign server token: %w", err)
	}
	return signed, nil
}

// userResponse is the minimal user shape returned by the platform.
type userResponse struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

type upsertUserRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ensureChannelRequest struct {
	CreatedByID string `json:"created_by_id"`
}

// QueryUserByID looks a user up on the platform. A 404 means the user does
// not exist and is reported as (nil, nil).
func (c *Client) QueryUserByID(ctx context.Context, userID string) (*domain.UserIdentity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("chatkit: user ID must not be empty")
	}

	endpoint := c.endpoint("/v1/users/" + url.PathEscape(userID))
	raw, err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("chatkit: query user: %w", err)
	}

	var payload userResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return nil, fmt.Errorf("chatkit: decode user response: %w", decErr)
	}
	if payload.User.ID == "" {
		return nil, errors.New("chatkit: user response missing id")
	}
	return &domain.UserIdentity{
		UserID: payload.User.ID,
		Name:   payload.User.Name,
		Email:  payload.User.Email,
	}, nil
}

// UpsertUser creates or replaces the user on the platform.
func (c *Client) UpsertUser(ctx context.Context, user domain.UserIdentity, role string) error {
	if strings.TrimSpace(user.UserID) == "" {
		return errors.New("chatkit: user ID must not be empty")
	}

	endpoint := c.endpoint("/v1/users/" + url.PathEscape(user.UserID))
	_, err := c.doJSONRequest(ctx, http.MethodPut, endpoint, upsertUserRequest{
		ID:    user.UserID,
		Name:  user.Name,
		Email: user.Email,
		Role:  role,
	})
	if err != nil {
		return fmt.Errorf("chatkit: upsert user: %w", err)
	}
	return nil
}

// EnsureChannel creates the named channel if it does not already exist. A
// 409 from the platform means the channel is already provisioned and is not
// an error.
func (c *Client) EnsureChannel(ctx context.Context, name, creatorID string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("chatkit: channel name must not be empty")
	}

	endpoint := c.endpoint("/v1/channels/" + url.PathEscape(name))
	_, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, ensureChannelRequest{CreatedByID: creatorID})
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			return nil
		}
		return fmt.Errorf("chatkit: ensure channel: %w", err)
	}
	return nil
}

// Publish appends a message to the named channel.
func (c *Client) Publish(ctx context.Context, name string, msg domain.ChannelMessage) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("chatkit: channel name must not be empty")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return errors.New("chatkit: message text must not be empty")
	}

	endpoint := c.endpoint("/v1/channels/" + url.PathEscape(name) + "/messages")
	if _, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, msg); err != nil {
		return fmt.Errorf("chatkit: publish: %w", err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.baseURL, "/") + path
}

func (c *Client) doJSONRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	key, secret, err := c.resolveCredentials(ctx)
	if err != nil {
		return nil, err
	}
	token, err := serverToken(secret)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		buf, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, fmt.Errorf("chatkit: marshal request: %w", marshalErr)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("chatkit: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Api-Key", key)

	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchCredentialsFromParamStore(ctx context.Context, getter Getter, name string) (string, string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", "", fmt.Errorf("chatkit: fetch credentials from paramstore: %w", err)
	}
	var creds credentialsPayload
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return "", "", fmt.Errorf("chatkit: unmarshal paramstore credentials as JSON: %w", err)
	}
	if creds.Key == "" || creds.Secret == "" {
		return "", "", errors.New("chatkit: credentials missing key or secret")
	}
	return creds.Key, creds.Secret, nil
}

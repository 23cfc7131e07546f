package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/storage"
)

const (
	MsgNoToken      = "Authentication required but no token found"
	MsgUnauthorized = "Unauthorized - please login again"
	MsgUnknown      = "An unknown error occurred"

	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// Client performs authenticated calls against the backend using the token held
// in durable storage. A 401 response deletes that token; nothing is retried.
type Client struct {
	baseURL    string
	repo       storage.Repo
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client rooted at baseURL that reads its bearer token from repo.
func New(baseURL string, repo storage.Repo, options ...Option) (*Client, error) {
	if repo == nil {
		return nil, errors.New("[apiclient.New] storage repo is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("[apiclient.New] base url is required")
	}
	c := &Client{
		baseURL:    baseURL,
		repo:       repo,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out, true)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out, true)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out, true)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, out, true)
}

// Do sends one request. endpoint is either a path appended to the base URL or,
// when it starts with "http", an absolute URL. A non-nil body is sent as JSON.
// On success the response is decoded into out: JSON bodies via encoding/json,
// anything else only when out is a *string.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, requiresAuth bool) error {
	var bearer string
	if requiresAuth {
		token, err := c.repo.Get(ctx, storage.KeyAuthToken)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			c.logger.Error().Err(err).Msg("Failed to read authentication token")
		}
		if token == "" {
			return &authmodel.Error{Kind: authmodel.KindUnauthorized, Message: MsgNoToken, Err: err}
		}
		bearer = token
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[Client.Do] encode %s %s", method, endpoint)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), reader)
	if err != nil {
		return errors.Wrapf(err, "[Client.Do] build %s %s", method, endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("Request failed")
		return authmodel.NetworkError(MsgUnknown, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return authmodel.NetworkError(MsgUnknown, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.repo.Remove(ctx, storage.KeyAuthToken); err != nil {
			c.logger.Error().Err(err).Msg("Failed to remove rejected authentication token")
		}
		return authmodel.NewError(authmodel.KindUnauthorized, resp.StatusCode, MsgUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := authmodel.KindServer
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
			kind = authmodel.KindValidation
		}
		return authmodel.NewError(kind, resp.StatusCode, authmodel.MessageFromBody(payload, MsgUnknown))
	}

	return decode(resp.Header.Get("Content-Type"), payload, out)
}

func (c *Client) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func decode(contentType string, payload []byte, out any) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		if err := json.Unmarshal(payload, out); err != nil {
			return &authmodel.Error{Kind: authmodel.KindServer, StatusCode: http.StatusOK, Message: MsgUnknown, Err: err}
		}
		return nil
	}
	if s, ok := out.(*string); ok {
		*s = string(payload)
		return nil
	}
	return &authmodel.Error{Kind: authmodel.KindServer, StatusCode: http.StatusOK, Message: MsgUnknown,
		Err: errors.Errorf("unexpected content type %q", contentType)}
}

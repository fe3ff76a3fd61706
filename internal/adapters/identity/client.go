package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cats-graphql/internal/platform/apperror"
	"cats-graphql/internal/platform/httpclient"
	"cats-graphql/internal/platform/metrics"
	"cats-graphql/internal/ports/auth"
)

var ErrNotConfigured = errors.New("identity client not configured")

// Document es la respuesta JSON del servicio de identidad, sin remapear.
type Document = map[string]any

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Config del cliente de identidad. BaseURL viene de AUTH_URL.
type Config struct {
	BaseURL string
	Timeout time.Duration

	Metrics *metrics.Metrics
}

type Client struct {
	http    *httpclient.Client
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	return &Client{
		http:    hc,
		metrics: cfg.Metrics,
		now:     time.Now,
	}, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]Document, error) {
	var out []Document
	err := c.call(ctx, "list_users", http.MethodGet, "/users", nil, nil, &out, apperror.KindNotFound)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (Document, error) {
	var out Document
	err := c.call(ctx, "get_user", http.MethodGet, "/users/"+url.PathEscape(strings.TrimSpace(id)), nil, nil, &out, apperror.KindNotFound)
	return out, err
}

// CheckToken no exige token local: sin token el upstream responde el error.
func (c *Client) CheckToken(ctx context.Context, token string) (Document, error) {
	var out Document
	err := c.call(ctx, "check_token", http.MethodGet, "/users/token", bearer(token), nil, &out, apperror.KindNotFound)
	return out, err
}

// Login: cualquier no-2xx (incluido 401) sale como NOT_FOUND.
func (c *Client) Login(ctx context.Context, cred Credentials) (Document, error) {
	var out Document
	err := c.call(ctx, "login", http.MethodPost, "/auth/login", nil, cred, &out, apperror.KindNotFound)
	return out, err
}

func (c *Client) Register(ctx context.Context, user Document) (Document, error) {
	var out Document
	err := c.call(ctx, "register", http.MethodPost, "/users", nil, user, &out, apperror.KindValidation)
	return out, err
}

// UpdateSelf no manda id: el servicio lo saca del token.
func (c *Client) UpdateSelf(ctx context.Context, caller auth.Caller, user Document) (Document, error) {
	if !caller.HasToken() {
		return nil, notAuthorized()
	}
	var out Document
	err := c.call(ctx, "update_user", http.MethodPut, "/users", bearer(caller.Token), user, &out, apperror.KindNotFound)
	return out, err
}

func (c *Client) DeleteSelf(ctx context.Context, caller auth.Caller) (Document, error) {
	if !caller.HasToken() {
		return nil, notAuthorized()
	}
	var out Document
	err := c.call(ctx, "delete_user", http.MethodDelete, "/users", bearer(caller.Token), nil, &out, apperror.KindNotFound)
	return out, err
}

func (c *Client) UpdateAsAdmin(ctx context.Context, caller auth.Caller, id string, user Document) (Document, error) {
	if !caller.HasToken() || !caller.IsAdmin() {
		return nil, notAuthorized()
	}
	var out Document
	err := c.call(ctx, "update_user_as_admin", http.MethodPut, "/users/"+url.PathEscape(strings.TrimSpace(id)),
		adminHeaders(caller), user, &out, apperror.KindNotFound)
	return out, err
}

func (c *Client) DeleteAsAdmin(ctx context.Context, caller auth.Caller, id string) (Document, error) {
	if !caller.HasToken() || !caller.IsAdmin() {
		return nil, notAuthorized()
	}
	var out Document
	err := c.call(ctx, "delete_user_as_admin", http.MethodDelete, "/users/"+url.PathEscape(strings.TrimSpace(id)),
		adminHeaders(caller), nil, &out, apperror.KindNotFound)
	return out, err
}

// call hace exactamente un request. Un status no-2xx se traduce a onStatus
// con la frase de estado del upstream como mensaje.
func (c *Client) call(
	ctx context.Context,
	operation string,
	method string,
	path string,
	headers map[string]string,
	in any,
	out any,
	onStatus apperror.Kind,
) error {
	if c == nil || c.http == nil {
		return apperror.Internal("identity service not configured", ErrNotConfigured)
	}

	start := c.now()
	err := c.http.DoJSON(ctx, method, path, headers, in, out)
	c.metrics.ObserveUpstream(operation, outcome(err), c.now().Sub(start))

	if err == nil {
		return nil
	}
	if he, ok := httpclient.AsHTTPError(err); ok {
		return apperror.New(onStatus, he.Status, err)
	}
	return apperror.Internal("identity service unavailable", err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if he, ok := httpclient.AsHTTPError(err); ok {
		return fmt.Sprintf("http_%d", he.StatusCode)
	}
	return "error"
}

func notAuthorized() error {
	return apperror.NotAuthorized("Not authorized")
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + strings.TrimSpace(token)}
}

func adminHeaders(caller auth.Caller) map[string]string {
	h := bearer(caller.Token)
	h["role"] = string(auth.NormalizeRole(string(caller.Role)))
	return h
}

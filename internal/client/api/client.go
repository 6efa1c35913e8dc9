package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/common"
)

type Client interface {
	Register(ctx context.Context, name, email string, password []byte) (*User, error)
	Login(ctx context.Context, email string, password []byte) (*User, error)
	Logout()
	LoggedIn() bool
	Ping(ctx context.Context) error

	Cart(ctx context.Context) (*Cart, error)
	AddToCart(ctx context.Context, b Book) (string, error)
	RemoveFromCart(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) (int64, error)
	Checkout(ctx context.Context) (*CheckoutResult, error)
	Purchases(ctx context.Context) ([]Purchase, error)
	Profile(ctx context.Context) (*User, error)
}

// HTTPClient talks to the API over JSON/HTTP. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) LoggedIn() bool {
	return c.currentToken() != ""
}

func (c *HTTPClient) Logout() {
	c.setToken("")
}

type authRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c *HTTPClient) Register(ctx context.Context, name, email string, password []byte) (*User, error) {
	return c.authenticate(ctx, "/api/auth/signup", authRequest{Name: name, Email: email, Password: string(password)})
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*User, error) {
	return c.authenticate(ctx, "/api/auth/login", authRequest{Email: email, Password: string(password)})
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, body authRequest) (*User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, false, body, &resp); err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	return &resp.User, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", false, nil, nil)
}

func (c *HTTPClient) Cart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/api/cart", true, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart returns "created" or "updated".
func (c *HTTPClient) AddToCart(ctx context.Context, b Book) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/cart", true, b, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *HTTPClient) RemoveFromCart(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(itemID), true, nil, nil)
}

func (c *HTTPClient) ClearCart(ctx context.Context) (int64, error) {
	var resp struct {
		Removed int64 `json:"removed"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/cart", true, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *HTTPClient) Checkout(ctx context.Context) (*CheckoutResult, error) {
	var res CheckoutResult
	if err := c.do(ctx, http.MethodPost, "/api/checkout", true, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Purchases(ctx context.Context) ([]Purchase, error) {
	var resp struct {
		Books []Purchase `json:"books"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/purchased-books", true, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile", true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		token := c.currentToken()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
		Field string `json:"field"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Kind = body.Kind
		apiErr.Field = body.Field
		apiErr.Message = body.Error
	}
	if apiErr.Kind == "" && resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return apiErr
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the shop backend on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

func NewClient(baseURL string, store TokenStore) (*Client, error) {
	sess, err := Restore(store)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		session: sess,
	}, nil
}

func (c *Client) Session() *Session { return c.session }

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

type CartLine struct {
	Product  Product `json:"product"`
	Quantity uint    `json:"quantity"`
}

type Cart struct {
	Items       []CartLine `json:"items"`
	LastUpdated time.Time  `json:"last_updated"`
}

type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/registrar", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "", &out)
	if err != nil {
		return "", err
	}
	return out.UserID, nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, "", &out)
	if err != nil {
		return err
	}
	return c.session.Begin(out.Token, UserInfo{Name: out.Name, Email: out.Email})
}

func (c *Client) Logout() error {
	return c.session.End()
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out struct {
		User Profile `json:"user"`
	}
	if err := c.doGuarded(ctx, http.MethodGet, "/perfil", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Products(ctx context.Context, page, size int) ([]Product, error) {
	var out struct {
		Data []Product `json:"data"`
	}
	path := fmt.Sprintf("/productos?page=%d&size=%d", page, size)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) FetchCart(ctx context.Context) (*Cart, error) {
	var out Cart
	if err := c.doGuarded(ctx, http.MethodGet, "/carrito", nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []CartLine{}
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, productID string, quantity uint) (*Cart, error) {
	var out Cart
	err := c.doGuarded(ctx, http.MethodPost, "/carrito", map[string]any{
		"productId": productID,
		"quantity":  quantity,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateQuantity(ctx context.Context, productID string, quantity uint) (*Cart, error) {
	var out Cart
	err := c.doGuarded(ctx, http.MethodPut, "/carrito/"+productID, map[string]any{
		"quantity": quantity,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, productID string) error {
	return c.doGuarded(ctx, http.MethodDelete, "/carrito/"+productID, nil, nil)
}

// doGuarded enforces the session contract around an authenticated
// call: a missing or locally-expired token fails fast without touching
// the network, and a 401 from the server ends the session no matter
// what the local expiry judgment said.
func (c *Client) doGuarded(ctx context.Context, method, path string, body, out any) error {
	if c.session.State() != Authenticated {
		if err := c.session.End(); err != nil {
			return err
		}
		return ErrSessionExpired
	}

	err := c.do(ctx, method, path, body, c.session.Token(), out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		if endErr := c.session.End(); endErr != nil {
			return endErr
		}
		return ErrSessionExpired
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

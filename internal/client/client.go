package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"feastly/internal/delivery"
	"feastly/internal/models"
	"feastly/internal/store"
)

const defaultBaseURL = "http://localhost:8080"

// Client talks to the feastly HTTP API
type Client struct {
	httpClient *http.Client
	BaseURL    string
	token      string
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a client for baseURL. An empty baseURL falls back to
// FEASTLY_API_URL and then to localhost.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("FEASTLY_API_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token
func (c *Client) Token() string { return c.token }

// RestaurantQuery mirrors the listing filters of GET /restaurants
type RestaurantQuery struct {
	Search   string
	Cuisines []string
	Featured *bool
	Sort     string
	Page     int
	Limit    int
}

func (q RestaurantQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(q.Cuisines) > 0 {
		v.Set("cuisine", strings.Join(q.Cuisines, ","))
	}
	if q.Featured != nil {
		v.Set("featured", strconv.FormatBool(*q.Featured))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// CheckHealth checks if the API is up and running
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Login exchanges credentials for a token and keeps it for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.User, nil
}

// ListRestaurants retrieves one page of restaurants
func (c *Client) ListRestaurants(ctx context.Context, q RestaurantQuery) ([]models.Restaurant, store.Pagination, error) {
	var resp struct {
		Restaurants []models.Restaurant `json:"restaurants"`
		Pagination  store.Pagination    `json:"pagination"`
	}
	path := "/api/v1/restaurants"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, store.Pagination{}, err
	}
	return resp.Restaurants, resp.Pagination, nil
}

// GetRestaurant retrieves a restaurant with its available dishes
func (c *Client) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d", id), nil, &restaurant); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// Estimate previews the delivery estimate for a restaurant
func (c *Client) Estimate(ctx context.Context, restaurantID uint) (*delivery.Estimate, error) {
	var estimate delivery.Estimate
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d/estimate", restaurantID), nil, &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// MyOrders retrieves the signed-in user's orders
func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var resp struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// GetOrder retrieves a specific order by ID
func (c *Client) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Package loop adapts the Loop Subscriptions admin API, the best-effort
// mirror system. Every identifier passed in is already in mirror form.
package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

// Client calls the Loop admin API with the merchant token.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates the Loop adapter. baseURL comes from configuration so
// tests can point it at a local server.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is Loop's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Loop-Token", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("loop api call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("loop api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode loop response: %w", err)
	}
	if !env.Success {
		if env.Message == "" {
			env.Message = "request rejected"
		}
		return fmt.Errorf("loop api error: %s", env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode loop data: %w", err)
		}
	}
	return nil
}

func (c *Client) PauseSubscription(ctx context.Context, mirrorID string) error {
	return c.do(ctx, http.MethodPost, "/subscription/"+url.PathEscape(mirrorID)+"/pause", nil, nil)
}

func (c *Client) ReactivateSubscription(ctx context.Context, mirrorID string) error {
	return c.do(ctx, http.MethodPost, "/subscription/"+url.PathEscape(mirrorID)+"/reactivate", nil, nil)
}

func (c *Client) CancelSubscription(ctx context.Context, mirrorID, reason, comment string) error {
	body := map[string]string{}
	if reason != "" {
		body["cancellationReason"] = reason
	}
	if comment != "" {
		body["cancellationComment"] = comment
	}
	return c.do(ctx, http.MethodPost, "/subscription/"+url.PathEscape(mirrorID)+"/cancel", body, nil)
}

// SkipNextOrder resolves the upcoming order from the schedule and skips it
// at order level. When the schedule lookup is unavailable or empty, it
// falls back to the subscription-level skip endpoint.
func (c *Client) SkipNextOrder(ctx context.Context, mirrorID string) error {
	var schedule []struct {
		OrderID     int64  `json:"orderId"`
		Status      string `json:"status"`
		ScheduledAt string `json:"scheduledAt"`
	}

	err := c.do(ctx, http.MethodGet, "/subscription/"+url.PathEscape(mirrorID)+"/orders?status=upcoming", nil, &schedule)
	if err == nil {
		for _, order := range schedule {
			status := strings.ToLower(order.Status)
			if status != "upcoming" && status != "scheduled" {
				continue
			}
			skipErr := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/%d/skip", order.OrderID), nil, nil)
			if skipErr == nil {
				c.logger.Info().
					Str("subscriptionId", mirrorID).
					Int64("orderId", order.OrderID).
					Msg("Skipped upcoming order")
				return nil
			}
			err = skipErr
			break
		}
	}

	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("subscriptionId", mirrorID).
			Msg("Order-level skip unavailable, falling back to subscription skip")
	}
	return c.do(ctx, http.MethodPost, "/subscription/"+url.PathEscape(mirrorID)+"/skip", nil, nil)
}

func (c *Client) ChangeFrequency(ctx context.Context, mirrorID string, interval domain.DeliveryInterval) error {
	body := map[string]any{
		"intervalUnit":  interval.Unit,
		"intervalCount": interval.Value,
	}
	return c.do(ctx, http.MethodPost, "/subscription/"+url.PathEscape(mirrorID)+"/frequency", body, nil)
}

func (c *Client) ListPaymentMethods(ctx context.Context, customerEmail string) ([]domain.PaymentMethod, error) {
	var data []struct {
		ID          int    `json:"id"`
		Brand       string `json:"brand"`
		LastDigits  string `json:"lastDigits"`
		ExpiryMonth int    `json:"expiryMonth"`
		ExpiryYear  int    `json:"expiryYear"`
	}

	path := "/customer/paymentMethods?email=" + url.QueryEscape(customerEmail)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}

	methods := make([]domain.PaymentMethod, 0, len(data))
	for _, pm := range data {
		methods = append(methods, domain.PaymentMethod{
			ID:          pm.ID,
			Brand:       pm.Brand,
			LastDigits:  pm.LastDigits,
			ExpiryMonth: pm.ExpiryMonth,
			ExpiryYear:  pm.ExpiryYear,
		})
	}
	return methods, nil
}

func (c *Client) SendPaymentMethodEmail(ctx context.Context, paymentMethodID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/paymentMethod/%d/email", paymentMethodID), nil, nil)
}

var _ ports.SubscriptionMirror = (*Client)(nil)

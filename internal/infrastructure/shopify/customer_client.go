// Package shopify adapts the Shopify Customer Account API: the OAuth token
// endpoint plus the customer-scoped GraphQL surface for subscription
// contracts. Shopify is the authoritative system for contract state.
package shopify

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

// CustomerClient talks to shopify.com on behalf of one storefront's
// customers. BaseURL is only overridden in tests.
type CustomerClient struct {
	shopID     string
	clientID   string
	apiVersion string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// Option configures a CustomerClient.
type Option func(*CustomerClient)

// WithBaseURL points the client at a test server instead of shopify.com.
func WithBaseURL(base string) Option {
	return func(c *CustomerClient) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *CustomerClient) { c.httpClient = hc }
}

// NewCustomerClient creates the Customer Account API adapter. Outbound
// calls are throttled to stay inside Shopify's per-app budget.
func NewCustomerClient(shopID, clientID, apiVersion string, logger zerolog.Logger, opts ...Option) *CustomerClient {
	c := &CustomerClient{
		shopID:     shopID,
		clientID:   clientID,
		apiVersion: apiVersion,
		baseURL:    "https://shopify.com",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(4), 8),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL builds the hosted-login redirect for the authorization
// code + PKCE flow.
func (c *CustomerClient) AuthorizationURL(redirectURI string, req *domain.AuthRequest) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", "openid email customer-account-api:full")
	params.Set("state", req.State)
	params.Set("nonce", req.Nonce)
	params.Set("code_challenge", req.PKCE.Challenge)
	params.Set("code_challenge_method", req.PKCE.Method)

	return fmt.Sprintf("%s/%s/auth/oauth/authorize?%s", c.baseURL, c.shopID, params.Encode())
}

// ExchangeCode redeems an authorization code at the token endpoint. A
// provider rejection comes back as *ports.TokenExchangeError carrying the
// provider's error code.
func (c *CustomerClient) ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (*ports.TokenResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("client_id", c.clientID)
	values.Set("code", code)
	values.Set("redirect_uri", redirectURI)
	values.Set("code_verifier", verifier)

	tokenURL := fmt.Sprintf("%s/%s/auth/oauth/token", c.baseURL, c.shopID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		var provider struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &provider)
		if provider.Error == "" {
			provider.Error = "token_error"
		}
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("providerError", provider.Error).
			Msg("Token exchange rejected")
		return nil, &ports.TokenExchangeError{Code: provider.Error, Description: provider.ErrorDescription}
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &ports.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      token.IDToken,
		ExpiresIn:    token.ExpiresIn,
	}, nil
}

// graphql issues one Customer Account GraphQL call and decodes data into
// out. Untyped provider JSON never leaves this adapter.
func (c *CustomerClient) graphql(ctx context.Context, accessToken, query string, variables map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/account/customer/api/%s/graphql", c.baseURL, c.shopID, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("customer account api call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("customer account api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("customer account api error: %s", envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
	}
	return nil
}

const listContractsQuery = `
query SubscriptionContracts($first: Int!) {
  customer {
    subscriptionContracts(first: $first) {
      edges {
        node {
          id
          status
          nextBillingDate
          deliveryPolicy { interval intervalCount }
          lines(first: 10) {
            edges {
              node {
                name
                quantity
                currentPrice { amount currencyCode }
              }
            }
          }
        }
      }
    }
  }
}`

// ListSubscriptionContracts returns the customer's contracts with statuses
// normalized to the shared vocabulary.
func (c *CustomerClient) ListSubscriptionContracts(ctx context.Context, accessToken string) ([]domain.SubscriptionContract, error) {
	var data struct {
		Customer struct {
			SubscriptionContracts struct {
				Edges []struct {
					Node struct {
						ID              string  `json:"id"`
						Status          string  `json:"status"`
						NextBillingDate *string `json:"nextBillingDate"`
						DeliveryPolicy  struct {
							Interval      string `json:"interval"`
							IntervalCount int    `json:"intervalCount"`
						} `json:"deliveryPolicy"`
						Lines struct {
							Edges []struct {
								Node struct {
									Name         string `json:"name"`
									Quantity     int    `json:"quantity"`
									CurrentPrice struct {
										Amount       string `json:"amount"`
										CurrencyCode string `json:"currencyCode"`
									} `json:"currentPrice"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"lines"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"subscriptionContracts"`
		} `json:"customer"`
	}

	if err := c.graphql(ctx, accessToken, listContractsQuery, map[string]any{"first": 25}, &data); err != nil {
		return nil, fmt.Errorf("failed to list subscription contracts: %w", err)
	}

	contracts := make([]domain.SubscriptionContract, 0, len(data.Customer.SubscriptionContracts.Edges))
	for _, edge := range data.Customer.SubscriptionContracts.Edges {
		node := edge.Node
		contract := domain.SubscriptionContract{
			ID:     node.ID,
			Status: domain.NormalizeStatus(node.Status),
			DeliveryInterval: domain.DeliveryInterval{
				Value: node.DeliveryPolicy.IntervalCount,
				Unit:  node.DeliveryPolicy.Interval,
			},
		}
		if node.NextBillingDate != nil {
			if t, err := time.Parse(time.RFC3339, *node.NextBillingDate); err == nil {
				contract.NextBillingDate = &t
			}
		}
		for _, line := range node.Lines.Edges {
			contract.LineItems = append(contract.LineItems, domain.SubscriptionLineItem{
				Title:    line.Node.Name,
				Quantity: line.Node.Quantity,
				Price:    line.Node.CurrentPrice.Amount,
			})
			if contract.CurrentPrice == "" {
				contract.CurrentPrice = line.Node.CurrentPrice.Amount
			}
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

// contractMutation runs one contract mutation and lifts its userErrors out
// of the named response field.
func (c *CustomerClient) contractMutation(ctx context.Context, accessToken, query, field string, variables map[string]any) ports.MutationOutcome {
	var data map[string]struct {
		Contract *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"contract"`
		UserErrors []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
	}

	if err := c.graphql(ctx, accessToken, query, variables, &data); err != nil {
		return ports.MutationOutcome{Err: err}
	}

	result := data[field]
	outcome := ports.MutationOutcome{}
	for _, ue := range result.UserErrors {
		outcome.UserErrors = append(outcome.UserErrors, ports.UserError{
			Field:   strings.Join(ue.Field, "."),
			Message: ue.Message,
		})
	}
	return outcome
}

const pauseContractMutation = `
mutation SubscriptionContractPause($subscriptionContractId: ID!) {
  subscriptionContractPause(subscriptionContractId: $subscriptionContractId) {
    contract { id status }
    userErrors { field message }
  }
}`

func (c *CustomerClient) PauseContract(ctx context.Context, accessToken, contractID string) ports.MutationOutcome {
	return c.contractMutation(ctx, accessToken, pauseContractMutation, "subscriptionContractPause",
		map[string]any{"subscriptionContractId": domain.ToCanonicalID(contractID)})
}

const activateContractMutation = `
mutation SubscriptionContractActivate($subscriptionContractId: ID!) {
  subscriptionContractActivate(subscriptionContractId: $subscriptionContractId) {
    contract { id status }
    userErrors { field message }
  }
}`

// ActivateContract resumes a paused contract; "activate" is Shopify's
// vocabulary for resume.
func (c *CustomerClient) ActivateContract(ctx context.Context, accessToken, contractID string) ports.MutationOutcome {
	return c.contractMutation(ctx, accessToken, activateContractMutation, "subscriptionContractActivate",
		map[string]any{"subscriptionContractId": domain.ToCanonicalID(contractID)})
}

const cancelContractMutation = `
mutation SubscriptionContractCancel($subscriptionContractId: ID!) {
  subscriptionContractCancel(subscriptionContractId: $subscriptionContractId) {
    contract { id status }
    userErrors { field message }
  }
}`

func (c *CustomerClient) CancelContract(ctx context.Context, accessToken, contractID, reason, comment string) ports.MutationOutcome {
	if reason != "" || comment != "" {
		c.logger.Info().
			Str("contractId", contractID).
			Str("reason", reason).
			Str("comment", comment).
			Msg("Cancelling subscription contract")
	}
	return c.contractMutation(ctx, accessToken, cancelContractMutation, "subscriptionContractCancel",
		map[string]any{"subscriptionContractId": domain.ToCanonicalID(contractID)})
}

var _ ports.CustomerAccountClient = (*CustomerClient)(nil)

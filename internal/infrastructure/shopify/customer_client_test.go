package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CustomerClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCustomerClient("shop-1", "client-1", "2024-10", zerolog.Nop(), WithBaseURL(srv.URL))
}

func TestAuthorizationURL(t *testing.T) {
	t.Parallel()

	client := NewCustomerClient("shop-1", "client-1", "2024-10", zerolog.Nop())
	req, err := domain.NewAuthRequest()
	require.NoError(t, err)

	authURL := client.AuthorizationURL("https://conka.example/callback", req)

	require.Contains(t, authURL, "https://shopify.com/shop-1/auth/oauth/authorize?")
	require.Contains(t, authURL, "client_id=client-1")
	require.Contains(t, authURL, "response_type=code")
	require.Contains(t, authURL, "code_challenge="+req.PKCE.Challenge)
	require.Contains(t, authURL, "code_challenge_method=S256")
	require.Contains(t, authURL, "state="+req.State)
	require.Contains(t, authURL, "nonce="+req.Nonce)
	require.Contains(t, authURL, "scope=openid+email+customer-account-api%3Afull")
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	t.Run("sends grant and verifier, decodes tokens", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/shop-1/auth/oauth/token", r.URL.Path)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			require.Equal(t, "client-1", r.PostForm.Get("client_id"))
			require.Equal(t, "the-code", r.PostForm.Get("code"))
			require.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
			require.Equal(t, "https://conka.example/callback", r.PostForm.Get("redirect_uri"))

			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at",
				"refresh_token": "rt",
				"id_token":      "idt",
				"expires_in":    3600,
			})
		})

		token, err := client.ExchangeCode(context.Background(), "the-code", "the-verifier", "https://conka.example/callback")
		require.NoError(t, err)
		require.Equal(t, "at", token.AccessToken)
		require.Equal(t, "rt", token.RefreshToken)
		require.Equal(t, "idt", token.IDToken)
		require.Equal(t, 3600, token.ExpiresIn)
	})

	t.Run("provider rejection surfaces the error code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		})

		_, err := client.ExchangeCode(context.Background(), "c", "v", "u")
		var exchangeErr *ports.TokenExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, "invalid_grant", exchangeErr.Code)
	})

	t.Run("non-2xx without a body gets the generic code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.ExchangeCode(context.Background(), "c", "v", "u")
		var exchangeErr *ports.TokenExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, "token_error", exchangeErr.Code)
	})
}

func TestContractMutations(t *testing.T) {
	t.Parallel()

	t.Run("pause sends the canonical id and succeeds", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/shop-1/account/customer/api/2024-10/graphql", r.URL.Path)
			require.Equal(t, "customer-token", r.Header.Get("Authorization"))

			var req struct {
				Query     string         `json:"query"`
				Variables map[string]any `json:"variables"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Contains(t, req.Query, "subscriptionContractPause")
			require.Equal(t, "gid://shopify/SubscriptionContract/42", req.Variables["subscriptionContractId"])

			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"subscriptionContractPause": map[string]any{
						"contract":   map[string]any{"id": "gid://shopify/SubscriptionContract/42", "status": "PAUSED"},
						"userErrors": []any{},
					},
				},
			})
		})

		outcome := client.PauseContract(context.Background(), "customer-token", "42")
		require.True(t, outcome.Succeeded())
	})

	t.Run("userErrors are lifted out of the response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"subscriptionContractCancel": map[string]any{
						"contract": nil,
						"userErrors": []map[string]any{
							{"field": []string{"subscriptionContractId"}, "message": "Contract is already cancelled"},
						},
					},
				},
			})
		})

		outcome := client.CancelContract(context.Background(), "customer-token", "42", "", "")
		require.False(t, outcome.Succeeded())
		require.Equal(t, "Contract is already cancelled", outcome.FailureMessage())
	})

	t.Run("transport failure is an error outcome", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		outcome := client.ActivateContract(context.Background(), "customer-token", "42")
		require.False(t, outcome.Succeeded())
		require.Error(t, outcome.Err)
	})
}

func TestListSubscriptionContracts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"customer": map[string]any{
					"subscriptionContracts": map[string]any{
						"edges": []map[string]any{
							{"node": map[string]any{
								"id":              "gid://shopify/SubscriptionContract/42",
								"status":          "ACTIVE",
								"nextBillingDate": "2026-09-15T00:00:00Z",
								"deliveryPolicy":  map[string]any{"interval": "MONTH", "intervalCount": 1},
								"lines": map[string]any{
									"edges": []map[string]any{
										{"node": map[string]any{
											"name":         "CONKA Focus",
											"quantity":     2,
											"currentPrice": map[string]any{"amount": "39.00", "currencyCode": "GBP"},
										}},
									},
								},
							}},
						},
					},
				},
			},
		})
	})

	contracts, err := client.ListSubscriptionContracts(context.Background(), "customer-token")
	require.NoError(t, err)
	require.Len(t, contracts, 1)

	contract := contracts[0]
	require.Equal(t, "gid://shopify/SubscriptionContract/42", contract.ID)
	require.Equal(t, domain.StatusActive, contract.Status)
	require.NotNil(t, contract.NextBillingDate)
	require.Equal(t, domain.DeliveryInterval{Value: 1, Unit: "MONTH"}, contract.DeliveryInterval)
	require.Len(t, contract.LineItems, 1)
	require.Equal(t, "CONKA Focus", contract.LineItems[0].Title)
	require.Equal(t, "39.00", contract.CurrentPrice)
}

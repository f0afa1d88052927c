package ports

import (
	"context"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
)

// TokenResponse is the token endpoint's reply, decoded at the adapter edge.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresIn    int
}

// TokenExchangeError distinguishes a provider-rejected exchange (carrying
// the provider's error code) from transport failures.
type TokenExchangeError struct {
	Code        string
	Description string
}

func (e *TokenExchangeError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// UserError is a validation error returned inside a successful GraphQL
// mutation response. Shopify writes these messages for end users, so they
// are safe to surface.
type UserError struct {
	Field   string
	Message string
}

// MutationOutcome reports one Customer Account API mutation. Err covers
// transport and GraphQL-level failures; UserErrors a rejected mutation.
type MutationOutcome struct {
	UserErrors []UserError
	Err        error
}

// Succeeded reports whether the mutation went through cleanly.
func (o MutationOutcome) Succeeded() bool {
	return o.Err == nil && len(o.UserErrors) == 0
}

// FailureMessage returns the first user-safe message, or "" when there is
// nothing safe to show.
func (o MutationOutcome) FailureMessage() string {
	if len(o.UserErrors) > 0 {
		return o.UserErrors[0].Message
	}
	return ""
}

// CustomerAccountClient is the authoritative system: the Shopify Customer
// Account API. All calls are customer-scoped and carry the customer's
// access token.
type CustomerAccountClient interface {
	// AuthorizationURL builds the hosted-login redirect for one
	// authorization attempt.
	AuthorizationURL(redirectURI string, req *domain.AuthRequest) string

	// ExchangeCode redeems an authorization code plus PKCE verifier at the
	// token endpoint.
	ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (*TokenResponse, error)

	ListSubscriptionContracts(ctx context.Context, accessToken string) ([]domain.SubscriptionContract, error)

	PauseContract(ctx context.Context, accessToken, contractID string) MutationOutcome
	ActivateContract(ctx context.Context, accessToken, contractID string) MutationOutcome
	CancelContract(ctx context.Context, accessToken, contractID, reason, comment string) MutationOutcome
}

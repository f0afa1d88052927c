package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Cookie names shared between the auth handlers and the session reader.
// The id-token cookie is the only one readable by client script.
const (
	CookieCodeVerifier = "oauth_code_verifier"
	CookieState        = "oauth_state"
	CookieNonce        = "oauth_nonce"
	CookieAccessToken  = "customer_access_token"
	CookieTokenExpires = "customer_token_expires"
	CookieRefreshToken = "customer_refresh_token"
	CookieIDToken      = "customer_id_token"
)

const (
	// TransientTTL bounds the PKCE verifier, state and nonce cookies.
	TransientTTL = 10 * time.Minute

	// RefreshTokenTTL is fixed by the identity provider at 30 days.
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// PKCEChallenge holds the verifier kept by this service and the challenge
// sent to the authorization endpoint, per RFC 7636 S256.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// AuthRequest carries everything generated for one authorization attempt.
type AuthRequest struct {
	PKCE  PKCEChallenge
	State string
	Nonce string
}

// NewAuthRequest generates a fresh PKCE pair plus state and nonce values.
// The verifier carries 32 bytes of entropy, state and nonce 16 each. A
// failing random source is the only error and callers treat it as fatal.
func NewAuthRequest() (*AuthRequest, error) {
	verifier, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	state, err := randomToken(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := randomToken(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sum := sha256.Sum256([]byte(verifier))
	return &AuthRequest{
		PKCE: PKCEChallenge{
			Verifier:  verifier,
			Challenge: base64.RawURLEncoding.EncodeToString(sum[:]),
			Method:    "S256",
		},
		State: state,
		Nonce: nonce,
	}, nil
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IDTokenClaims is the subset of the identity token payload this service
// consumes. The token is decoded without signature verification; the claims
// feed UI projection only, never authorization decisions.
type IDTokenClaims struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Nonce      string `json:"nonce"`
	Exp        int64  `json:"exp"`
	Iat        int64  `json:"iat"`
}

// Customer is the logged-in identity projected from the id token.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Name      string `json:"name"`
}

// CustomerFromClaims projects token claims onto the customer shape the
// storefront consumes.
func CustomerFromClaims(claims *IDTokenClaims) *Customer {
	return &Customer{
		ID:        claims.Sub,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Name:      claims.Name,
	}
}

// SessionState answers "who is logged in" without calling the identity
// provider. Expired is only set when a previously valid session timed out.
type SessionState struct {
	Authenticated bool      `json:"authenticated"`
	Customer      *Customer `json:"customer"`
	Expired       bool      `json:"expired,omitempty"`
	ExpiresAt     string    `json:"expiresAt,omitempty"`
}

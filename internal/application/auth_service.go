package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/youcodecowboy/conka-sub004/internal/config"
	"github.com/youcodecowboy/conka-sub004/internal/domain"
	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

// Post-auth redirect targets. The login page also receives all failure
// redirects, with the failure code in the error query parameter.
const (
	AccountPath = "/account"
	LoginPath   = "/account/login"
)

// ErrNotAuthenticated is returned when an operation requires a session and
// no access-token cookie is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthService owns the authorization-code + PKCE flow and the cookie-backed
// session. All state lives in the caller's cookies; the service itself is
// stateless.
type AuthService struct {
	cfg     *config.Config
	shopify ports.CustomerAccountClient
	logger  zerolog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(cfg *config.Config, shopify ports.CustomerAccountClient, logger zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:     cfg,
		shopify: shopify,
		logger:  logger,
	}
}

// BeginAuthorization generates PKCE material, persists it as short-lived
// cookies, and returns the identity provider URL to redirect to. A missing
// client or shop identifier is a configuration error and nothing is
// persisted.
func (s *AuthService) BeginAuthorization(store ports.SessionStore, origin string) (string, error) {
	if err := s.cfg.ValidateAuth(); err != nil {
		return "", err
	}

	req, err := domain.NewAuthRequest()
	if err != nil {
		return "", fmt.Errorf("failed to generate authorization request: %w", err)
	}

	transient := ports.CookieOptions{HTTPOnly: true, MaxAge: domain.TransientTTL}
	store.Set(domain.CookieCodeVerifier, req.PKCE.Verifier, transient)
	store.Set(domain.CookieState, req.State, transient)
	store.Set(domain.CookieNonce, req.Nonce, transient)

	return s.shopify.AuthorizationURL(origin+"/callback", req), nil
}

// CallbackParams are the query parameters of the provider redirect.
type CallbackParams struct {
	Code          string
	State         string
	ProviderError string
}

// HandleCallback walks the token-exchange state machine and returns the
// path to redirect the browser to. Every failure lands on the login page
// with a distinguishing error code; no raw provider detail reaches the
// browser.
func (s *AuthService) HandleCallback(ctx context.Context, store ports.SessionStore, params CallbackParams, origin string) string {
	if params.ProviderError != "" {
		s.logger.Warn().Str("providerError", params.ProviderError).Msg("Identity provider returned an error")
		return loginRedirect(params.ProviderError)
	}

	if params.Code == "" || params.State == "" {
		return loginRedirect("missing_params")
	}

	// CSRF defense: the stored state must exactly equal the returned
	// state. No exceptions, no retry.
	storedState := store.Get(domain.CookieState)
	if storedState == "" || storedState != params.State {
		s.logger.Warn().Msg("OAuth state mismatch, aborting callback")
		return loginRedirect("invalid_state")
	}

	verifier := store.Get(domain.CookieCodeVerifier)
	if verifier == "" {
		return loginRedirect("missing_verifier")
	}

	token, err := s.shopify.ExchangeCode(ctx, params.Code, verifier, origin+"/callback")
	if err != nil {
		var exchangeErr *ports.TokenExchangeError
		if errors.As(err, &exchangeErr) {
			return loginRedirect(exchangeErr.Code)
		}
		s.logger.Error().Err(err).Msg("Token exchange failed")
		return loginRedirect("callback_failed")
	}

	// The id token is decoded without signature verification; its claims
	// feed UI projection only. Nonce mismatch is logged, not enforced.
	claims, decodeErr := decodeIDToken(token.IDToken)
	if decodeErr != nil {
		s.logger.Warn().Err(decodeErr).Msg("Failed to decode id token, skipping nonce check")
	} else {
		storedNonce := store.Get(domain.CookieNonce)
		if storedNonce != "" && claims.Nonce != storedNonce {
			s.logger.Error().
				Str("expected", storedNonce).
				Str("got", claims.Nonce).
				Msg("Nonce mismatch in id token")
		}
	}

	tokenTTL := time.Duration(token.ExpiresIn) * time.Second
	expiresAt := time.Now().Add(tokenTTL)

	httpOnly := ports.CookieOptions{HTTPOnly: true, MaxAge: tokenTTL}
	store.Set(domain.CookieAccessToken, token.AccessToken, httpOnly)
	store.Set(domain.CookieTokenExpires, expiresAt.Format(time.RFC3339), httpOnly)
	if token.RefreshToken != "" {
		store.Set(domain.CookieRefreshToken, token.RefreshToken, ports.CookieOptions{
			HTTPOnly: true,
			MaxAge:   domain.RefreshTokenTTL,
		})
	}
	// Intentionally readable by client script for lightweight UI use.
	store.Set(domain.CookieIDToken, token.IDToken, ports.CookieOptions{HTTPOnly: false, MaxAge: tokenTTL})

	store.Delete(domain.CookieCodeVerifier)
	store.Delete(domain.CookieState)
	store.Delete(domain.CookieNonce)

	s.logger.Info().Time("expiresAt", expiresAt).Msg("Customer session established")
	return AccountPath
}

// ReadSession answers "who is logged in" from cookies alone, with no call
// to the identity provider. It fails closed: any decode problem yields an
// unauthenticated result, never an error.
func (s *AuthService) ReadSession(store ports.SessionStore) *domain.SessionState {
	accessToken := store.Get(domain.CookieAccessToken)
	idToken := store.Get(domain.CookieIDToken)
	if accessToken == "" || idToken == "" {
		return &domain.SessionState{Authenticated: false}
	}

	if expiresRaw := store.Get(domain.CookieTokenExpires); expiresRaw != "" {
		expiresAt, err := time.Parse(time.RFC3339, expiresRaw)
		if err == nil && time.Now().After(expiresAt) {
			return &domain.SessionState{Authenticated: false, Expired: true}
		}
	}

	claims, err := decodeIDToken(idToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Undecodable id token in session read")
		return &domain.SessionState{Authenticated: false}
	}

	return &domain.SessionState{
		Authenticated: true,
		Customer:      domain.CustomerFromClaims(claims),
		ExpiresAt:     store.Get(domain.CookieTokenExpires),
	}
}

// Logout clears every token cookie. The transient PKCE cookies are deleted
// too in case a half-finished flow left them behind.
func (s *AuthService) Logout(store ports.SessionStore) {
	for _, name := range []string{
		domain.CookieAccessToken,
		domain.CookieTokenExpires,
		domain.CookieRefreshToken,
		domain.CookieIDToken,
		domain.CookieCodeVerifier,
		domain.CookieState,
		domain.CookieNonce,
	} {
		store.Delete(name)
	}
}

// AccessToken returns the current access token, or ErrNotAuthenticated.
func (s *AuthService) AccessToken(store ports.SessionStore) (string, error) {
	token := store.Get(domain.CookieAccessToken)
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

type rawIDClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Nonce      string `json:"nonce"`
	jwt.RegisteredClaims
}

// decodeIDToken parses the id token payload without verifying the
// signature.
func decodeIDToken(idToken string) (*domain.IDTokenClaims, error) {
	var raw rawIDClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse id token: %w", err)
	}

	claims := &domain.IDTokenClaims{
		Sub:        raw.Subject,
		Email:      raw.Email,
		GivenName:  raw.GivenName,
		FamilyName: raw.FamilyName,
		Name:       raw.Name,
		Nonce:      raw.Nonce,
	}
	if raw.ExpiresAt != nil {
		claims.Exp = raw.ExpiresAt.Unix()
	}
	if raw.IssuedAt != nil {
		claims.Iat = raw.IssuedAt.Unix()
	}
	return claims, nil
}

func loginRedirect(code string) string {
	return LoginPath + "?error=" + url.QueryEscape(code)
}

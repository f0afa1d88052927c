// Package httpapi exposes the auth flow and the subscription command router
// over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/youcodecowboy/conka-sub004/internal/application"
	"github.com/youcodecowboy/conka-sub004/internal/config"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/cookies"
)

// Handler carries the services and wires them to routes.
type Handler struct {
	cfg           *config.Config
	auth          *application.AuthService
	subs          *application.SubscriptionService
	logger        zerolog.Logger
	secureCookies bool
}

// NewHandler creates the HTTP handler set.
func NewHandler(cfg *config.Config, auth *application.AuthService, subs *application.SubscriptionService, logger zerolog.Logger) *Handler {
	return &Handler{
		cfg:           cfg,
		auth:          auth,
		subs:          subs,
		logger:        logger,
		secureCookies: strings.HasPrefix(cfg.AppURL, "https://"),
	}
}

// Routes registers every route on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/authorize", h.Authorize)
	r.Get("/callback", h.Callback)
	r.Get("/session", h.Session)
	r.Post("/logout", h.Logout)

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", h.ListSubscriptions)
		r.Post("/actions", h.Actions)
		r.Get("/payment-methods", h.ListPaymentMethods)
		r.Put("/payment-methods/{id}", h.UpdatePaymentMethod)
		r.Post("/{id}/pause", h.command("pause"))
		r.Post("/{id}/resume", h.command("resume"))
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/skip", h.command("skip"))
	})
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) *cookies.Store {
	return cookies.New(w, r, h.secureCookies)
}

// origin reconstructs the scheme://host the browser used, honoring the
// forwarding proxy's headers.
func origin(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}

// Authorize starts the login flow: generate PKCE material and bounce to the
// identity provider's hosted login.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.auth.BeginAuthorization(h.store(w, r), origin(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Cannot start authorization")
		respondError(w, http.StatusInternalServerError, "not_configured", "Customer accounts are not configured")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback is the OAuth redirect target.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect := h.auth.HandleCallback(r.Context(), h.store(w, r), application.CallbackParams{
		Code:          q.Get("code"),
		State:         q.Get("state"),
		ProviderError: q.Get("error"),
	}, origin(r))
	http.Redirect(w, r, redirect, http.StatusFound)
}

// Session reports login state from cookies alone. It never fails: absent
// cookies simply mean unauthenticated.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.auth.ReadSession(h.store(w, r)))
}

// Logout clears the session cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(h.store(w, r))
	http.Redirect(w, r, "/", http.StatusFound)
}

// ListSubscriptions returns the customer's contracts.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.AccessToken(h.store(w, r))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage subscriptions")
		return
	}

	contracts, err := h.subs.ListContracts(r.Context(), token)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list subscription contracts")
		respondError(w, http.StatusBadGateway, "upstream_error", "Unable to load subscriptions right now")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": contracts})
}

// command builds a handler for the body-less two-system mutations.
func (h *Handler) command(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := h.auth.AccessToken(h.store(w, r))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage subscriptions")
			return
		}

		id := chi.URLParam(r, "id")
		var result *application.CommandResult
		switch action {
		case "pause":
			result, err = h.subs.Pause(r.Context(), token, id)
		case "resume":
			result, err = h.subs.Resume(r.Context(), token, id)
		case "skip":
			result, err = h.subs.Skip(r.Context(), token, id)
		}
		h.writeCommandResult(w, result, err)
	}
}

type cancelRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
}

// Cancel cancels a contract, with an optional reason and comment body.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.AccessToken(h.store(w, r))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage subscriptions")
		return
	}

	var body cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}

	result, err := h.subs.Cancel(r.Context(), token, chi.URLParam(r, "id"), body.Reason, body.Comment)
	h.writeCommandResult(w, result, err)
}

type actionRequest struct {
	Action         string `json:"action"`
	SubscriptionID string `json:"subscriptionId"`
	Plan           string `json:"plan"`
}

// Actions is the unified mirror-only command endpoint.
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.AccessToken(h.store(w, r))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage subscriptions")
		return
	}

	var body actionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}
	if body.SubscriptionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "subscriptionId is required")
		return
	}

	var result *application.CommandResult
	switch body.Action {
	case "skip":
		result, err = h.subs.Skip(r.Context(), token, body.SubscriptionID)
	case "change-plan":
		result, err = h.subs.ChangePlan(r.Context(), token, body.SubscriptionID, body.Plan)
		if errors.Is(err, application.ErrUnknownPlan) {
			respondError(w, http.StatusBadRequest, "invalid_request", "Unknown plan")
			return
		}
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "Unknown action")
		return
	}
	h.writeCommandResult(w, result, err)
}

// ListPaymentMethods returns the customer's cards sorted by derived status.
func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	token, err := h.auth.AccessToken(store)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage payment methods")
		return
	}

	session := h.auth.ReadSession(store)
	if !session.Authenticated || session.Customer == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage payment methods")
		return
	}

	methods, err := h.subs.ListPaymentMethods(r.Context(), token, session.Customer.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list payment methods")
		respondError(w, http.StatusBadGateway, "upstream_error", "Unable to load payment methods right now")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"paymentMethods": methods})
}

// UpdatePaymentMethod triggers the secure self-service email; the card is
// never mutated here.
func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	token, err := h.auth.AccessToken(h.store(w, r))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage payment methods")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Payment method id must be numeric")
		return
	}

	result, err := h.subs.SendPaymentMethodEmail(r.Context(), token, id)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage payment methods")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) writeCommandResult(w http.ResponseWriter, result *application.CommandResult, err error) {
	if err != nil {
		if errors.Is(err, application.ErrNotAuthenticated) {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "Sign in to manage subscriptions")
			return
		}
		h.logger.Error().Err(err).Msg("Subscription command failed")
		respondError(w, http.StatusInternalServerError, "command_failed", "Unable to update your subscription right now")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, result)
}

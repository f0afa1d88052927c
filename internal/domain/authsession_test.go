package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAuthRequest(t *testing.T) {
	t.Parallel()

	req, err := NewAuthRequest()
	require.NoError(t, err)

	t.Run("challenge is S256 of verifier", func(t *testing.T) {
		sum := sha256.Sum256([]byte(req.PKCE.Verifier))
		require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), req.PKCE.Challenge)
		require.Equal(t, "S256", req.PKCE.Method)
	})

	t.Run("values are base64url with no padding", func(t *testing.T) {
		for _, v := range []string{req.PKCE.Verifier, req.State, req.Nonce} {
			_, err := base64.RawURLEncoding.DecodeString(v)
			require.NoError(t, err)
			require.NotContains(t, v, "=")
		}
	})

	t.Run("entropy sizes", func(t *testing.T) {
		verifier, _ := base64.RawURLEncoding.DecodeString(req.PKCE.Verifier)
		require.GreaterOrEqual(t, len(verifier), 32)

		state, _ := base64.RawURLEncoding.DecodeString(req.State)
		require.GreaterOrEqual(t, len(state), 16)

		nonce, _ := base64.RawURLEncoding.DecodeString(req.Nonce)
		require.GreaterOrEqual(t, len(nonce), 16)
	})

	t.Run("values are unique per request", func(t *testing.T) {
		other, err := NewAuthRequest()
		require.NoError(t, err)
		require.NotEqual(t, req.PKCE.Verifier, other.PKCE.Verifier)
		require.NotEqual(t, req.State, other.State)
		require.NotEqual(t, req.Nonce, other.Nonce)
	})
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, StatusActive, NormalizeStatus("ACTIVE"))
	require.Equal(t, StatusPaused, NormalizeStatus("Paused"))
	require.Equal(t, StatusCancelled, NormalizeStatus("CANCELLED"))
	require.Equal(t, StatusCancelled, NormalizeStatus("canceled"))
	require.Equal(t, StatusExpired, NormalizeStatus(" expired "))
	require.Equal(t, SubscriptionStatus("failed"), NormalizeStatus("FAILED"))
}

func TestPlanInterval(t *testing.T) {
	t.Parallel()

	starter, ok := PlanInterval("starter")
	require.True(t, ok)
	require.Equal(t, DeliveryInterval{Value: 1, Unit: "MONTH"}, starter)

	pro, ok := PlanInterval(" PRO ")
	require.True(t, ok)
	require.Equal(t, DeliveryInterval{Value: 2, Unit: "WEEK"}, pro)

	_, ok = PlanInterval("enterprise")
	require.False(t, ok)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_ID", "")
	t.Setenv("SHOPIFY_API_VERSION", "")
	t.Setenv("LOOP_API_BASE", "")
	t.Setenv("PORT", "")

	cfg := Load()
	require.Equal(t, "2024-10", cfg.APIVersion)
	require.Equal(t, "https://api.loopsubscriptions.com/admin/v1", cfg.LoopAPIBase)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "conka", cfg.MongoDatabase)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_ID", "12345678")
	t.Setenv("SHOPIFY_CLIENT_ID", "client-abc")
	t.Setenv("SHOPIFY_API_VERSION", "2025-01")
	t.Setenv("LOOP_API_KEY", "loop-key")

	cfg := Load()
	require.Equal(t, "12345678", cfg.ShopID)
	require.Equal(t, "client-abc", cfg.ClientID)
	require.Equal(t, "2025-01", cfg.APIVersion)
	require.NoError(t, cfg.ValidateAuth())
	require.NoError(t, cfg.ValidateMirror())
}

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"missing client id", Config{ShopID: "1"}, ErrMissingClientID},
		{"missing shop id", Config{ClientID: "c"}, ErrMissingShopID},
		{"complete", Config{ShopID: "1", ClientID: "c"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.cfg.ValidateAuth(), tt.want)
		})
	}
}

func TestValidateMirror(t *testing.T) {
	require.ErrorIs(t, (&Config{}).ValidateMirror(), ErrMissingLoopKey)
	require.NoError(t, (&Config{LoopAPIKey: "k"}).ValidateMirror())
}

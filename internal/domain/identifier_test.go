package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToMirrorID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"canonical gid", "gid://shopify/SubscriptionContract/126061281654", "shopify-126061281654"},
		{"bare numeric", "126061281654", "shopify-126061281654"},
		{"already mirror", "shopify-126061281654", "shopify-126061281654"},
		{"loop native", "loop-998877", "loop-998877"},
		{"url encoded gid", "gid%3A%2F%2Fshopify%2FSubscriptionContract%2F126061281654", "shopify-126061281654"},
		{"lowercase encoding", "gid%3a%2f%2fshopify%2fSubscriptionContract%2f126061281654", "shopify-126061281654"},
		{"unknown passes through", "not-a-contract-id", "not-a-contract-id"},
		{"gid with junk suffix", "gid://shopify/SubscriptionContract/12ab", "gid://shopify/SubscriptionContract/12ab"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ToMirrorID(tc.in))
		})
	}
}

func TestToMirrorIDIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"gid://shopify/SubscriptionContract/126061281654",
		"126061281654",
		"shopify-126061281654",
		"gid%3A%2F%2Fshopify%2FSubscriptionContract%2F126061281654",
		"garbage",
		"",
	}
	for _, in := range inputs {
		once := ToMirrorID(in)
		require.Equal(t, once, ToMirrorID(once), "input %q", in)
	}
}

func TestNumericContractID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "126061281654", NumericContractID("gid://shopify/SubscriptionContract/126061281654"))
	require.Equal(t, "126061281654", NumericContractID("shopify-126061281654"))
	require.Equal(t, "126061281654", NumericContractID("126061281654"))
	require.Equal(t, "loop-5", NumericContractID("loop-5"))
}

func TestToCanonicalID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "gid://shopify/SubscriptionContract/42", ToCanonicalID("42"))
	require.Equal(t, "gid://shopify/SubscriptionContract/42", ToCanonicalID("shopify-42"))
	require.Equal(t, "gid://shopify/SubscriptionContract/42", ToCanonicalID("gid://shopify/SubscriptionContract/42"))
	require.Equal(t, "mystery", ToCanonicalID("mystery"))
}

package domain

import (
	"net/url"
	"strings"
)

const contractGIDPrefix = "gid://shopify/SubscriptionContract/"

// ToMirrorID translates a subscription identifier into the form Loop
// expects. Shopify owns the canonical GID; Loop keys the same contract as
// "shopify-<numeric>" (or a bare numeric for native Loop records).
//
// The function is total and idempotent: unrecognised input passes through
// unchanged so the downstream system can reject it.
func ToMirrorID(id string) string {
	if strings.HasPrefix(id, "shopify-") || strings.HasPrefix(id, "loop-") {
		return id
	}

	if strings.Contains(id, "%2F") || strings.Contains(id, "%2f") {
		decoded, err := url.QueryUnescape(id)
		if err == nil {
			id = decoded
		}
	}

	if strings.HasPrefix(id, contractGIDPrefix) {
		if numeric := id[len(contractGIDPrefix):]; isDigits(numeric) {
			return "shopify-" + numeric
		}
		return id
	}

	if isDigits(id) {
		return "shopify-" + id
	}

	return id
}

// NumericContractID strips either identifier form down to the shared
// numeric suffix, or returns the input unchanged when no rule matches.
func NumericContractID(id string) string {
	mirror := ToMirrorID(id)
	if strings.HasPrefix(mirror, "shopify-") {
		return strings.TrimPrefix(mirror, "shopify-")
	}
	return mirror
}

// ToCanonicalID rebuilds the Shopify GID from any accepted identifier form.
func ToCanonicalID(id string) string {
	numeric := NumericContractID(id)
	if isDigits(numeric) {
		return contractGIDPrefix + numeric
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package domain

import (
	"sort"
	"time"
)

// PaymentMethodStatus is derived from the card expiry, never stored.
type PaymentMethodStatus string

const (
	PaymentSafe         PaymentMethodStatus = "safe"
	PaymentExpiringSoon PaymentMethodStatus = "expiring_soon"
	PaymentExpired      PaymentMethodStatus = "expired"
)

// expiringSoonWindow is how far ahead of end-of-expiry-month a card starts
// being reported as expiring_soon.
const expiringSoonWindow = 60 * 24 * time.Hour

// PaymentMethod is a read-only mirror of a card on file with Loop. Updates
// happen out of band via an emailed self-service link.
type PaymentMethod struct {
	ID          int    `json:"id"`
	Brand       string `json:"brand"`
	LastDigits  string `json:"lastDigits"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
}

// ExpiresAt returns the instant the card stops being valid: the end of its
// expiry month. Two-digit years are taken as 2000+year.
func (p PaymentMethod) ExpiresAt() time.Time {
	year := p.ExpiryYear
	if year < 100 {
		year += 2000
	}
	// First instant of the following month == end of the expiry month.
	return time.Date(year, time.Month(p.ExpiryMonth)+1, 1, 0, 0, 0, 0, time.UTC)
}

// StatusAt derives the card status relative to now.
func (p PaymentMethod) StatusAt(now time.Time) PaymentMethodStatus {
	expires := p.ExpiresAt()
	switch {
	case !now.Before(expires):
		return PaymentExpired
	case expires.Sub(now) <= expiringSoonWindow:
		return PaymentExpiringSoon
	default:
		return PaymentSafe
	}
}

var statusRank = map[PaymentMethodStatus]int{
	PaymentSafe:         0,
	PaymentExpiringSoon: 1,
	PaymentExpired:      2,
}

// SortPaymentMethods orders cards safe first, then expiring_soon, then
// expired; within a rank the soonest-expiring card comes first.
func SortPaymentMethods(methods []PaymentMethod, now time.Time) {
	sort.SliceStable(methods, func(i, j int) bool {
		ri, rj := statusRank[methods[i].StatusAt(now)], statusRank[methods[j].StatusAt(now)]
		if ri != rj {
			return ri < rj
		}
		return methods[i].ExpiresAt().Before(methods[j].ExpiresAt())
	})
}

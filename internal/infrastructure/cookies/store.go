// Package cookies implements the SessionStore port over HTTP cookies. All
// auth and token state is client-held; the server keeps nothing between
// requests.
package cookies

import (
	"net/http"

	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

// Store reads values from one inbound request and writes Set-Cookie headers
// on its response. A Store is built per request and never shared.
type Store struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
}

// New creates a cookie store bound to a request/response pair. secure
// controls the Secure attribute and should be true whenever the app URL is
// https.
func New(w http.ResponseWriter, r *http.Request, secure bool) *Store {
	return &Store{r: r, w: w, secure: secure}
}

func (s *Store) Get(name string) string {
	c, err := s.r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Store) Set(name, value string, opts ports.CookieOptions) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: opts.HTTPOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Store) Delete(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ ports.SessionStore = (*Store)(nil)

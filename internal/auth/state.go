package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/rs/xid"
)

const (
	stateCookieName = "devhelper_oauth_state"
	stateMaxAge     = 600 // seconds; the user has ten minutes on GitHub's consent page
)

// ErrStateMismatch means the OAuth callback's state does not match the
// cookie set when the flow started (or the cookie is gone).
var ErrStateMismatch = errors.New("auth: oauth state mismatch")

// StateCookie issues and checks the OAuth "state" parameter.
//
// The state is a random xid stored in a short-lived cookie signed with
// securecookie. On callback, GitHub echoes the state back and it has to
// match the cookie, which stops a third party from finishing a sign-in
// flow in someone else's browser.
type StateCookie struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewStateCookie derives the signing key from secret. Hashing with a fixed
// label keeps the key distinct from the one signing session tokens.
func NewStateCookie(secret string, secure bool) *StateCookie {
	key := sha256.Sum256([]byte("devhelper oauth state\x00" + secret))
	sc := securecookie.New(key[:], nil)
	sc.MaxAge(stateMaxAge)
	return &StateCookie{sc: sc, secure: secure}
}

// Issue generates a new state, stores it in the signed cookie and returns it
// for the authorization URL.
func (s *StateCookie) Issue(w http.ResponseWriter) (string, error) {
	state := xid.New().String()
	encoded, err := s.sc.Encode(stateCookieName, state)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// Verify checks state against the cookie and clears the cookie, so each
// state can be used once.
func (s *StateCookie) Verify(w http.ResponseWriter, r *http.Request, state string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return ErrStateMismatch
	}

	var want string
	if err := s.sc.Decode(stateCookieName, c.Value, &want); err != nil {
		return ErrStateMismatch
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(want)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

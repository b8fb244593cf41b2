package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "session_id"

var errInvalidCookie = errors.New("invalid session cookie")

// cookieCodec wraps the opaque session token in a signed JWT so that a
// tampered cookie is rejected before the store is consulted.
type cookieCodec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func (c cookieCodec) encode(token string, issued time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   token,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c cookieCodec) decode(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errInvalidCookie
	}
	return claims.Subject, nil
}

// tokenFromRequest returns the session token carried by the request cookie.
func (c cookieCodec) tokenFromRequest(req *http.Request) (string, error) {
	ck, err := req.Cookie(sessionCookieName)
	if err != nil || ck.Value == "" {
		return "", errInvalidCookie
	}
	return c.decode(ck.Value)
}

func (c cookieCodec) set(w http.ResponseWriter, token string, issued time.Time) error {
	value, err := c.encode(token, issued)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c cookieCodec) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

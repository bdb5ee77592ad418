package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clinicdesk/clinicdesk-go/internal/crypto"
)

var (
	errNoAuthorization  = errors.New("missing authorization header")
	errNotBearer        = errors.New("invalid authorization format")
	errUnusableIdentity = errors.New("invalid token")
)

// Principal is the staff member a request acts for.
type Principal struct {
	UserID int64
	Email  string
}

type principalKey struct{}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's Principal in the request context.
func Authenticate(tokens *crypto.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := principalOf(r, tokens)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
		})
	}
}

func principalOf(r *http.Request, tokens *crypto.Tokens) (Principal, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return Principal{}, errNoAuthorization
	}
	scheme, raw, ok := strings.Cut(header, " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return Principal{}, errNotBearer
	}

	claims, err := tokens.Verify(raw)
	if errors.Is(err, crypto.ErrTokenExpired) {
		return Principal{}, crypto.ErrTokenExpired
	}
	if err != nil {
		return Principal{}, errUnusableIdentity
	}
	id, err := claims.UserID()
	if err != nil {
		return Principal{}, errUnusableIdentity
	}
	return Principal{UserID: id, Email: claims.Email}, nil
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// writeJSONError answers with {"message": msg}, the shape clients show as-is.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

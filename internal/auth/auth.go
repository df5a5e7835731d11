package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

// Verifier validates agency session tokens. Tokens are HS256 JWTs whose
// subject is the owner's user ID.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue mints a token for ownerID. Used by the seeder and tests; real
// sessions are issued by the identity service.
func (v *Verifier) Issue(ownerID int64, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(ownerID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Verify(raw string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	ownerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || ownerID <= 0 {
		return 0, fmt.Errorf("token subject %q is not an owner id", claims.Subject)
	}
	return ownerID, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// owner ID in the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeUnauthorized(w, "missing bearer token")
			return
		}
		ownerID, err := v.Verify(raw)
		if err != nil {
			writeUnauthorized(w, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), ownerID)))
	})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":{"code":"unauthorized","message":%q}}`, msg)
}

func WithOwner(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, ownerID)
}

func OwnerFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

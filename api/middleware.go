package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/tokens"
)

// tokenCacheTTL bounds how long a verified bearer token or basic credential is
// served from cache. Cached bearer tokens are still checked against their own
// expiry on every request.
const tokenCacheTTL = 5 * time.Minute

// tokenExpiryExtension carries a bearer token's expiry, in unix seconds, on
// its cached auth.Info
const tokenExpiryExtension = "token-expires-at"

// MiddlewareDB holds what the auth middleware needs to resolve a caller
type MiddlewareDB struct {
	DB     databases.UserDatabase
	Tokens *tokens.Issuer
	// Now defaults to time.Now
	Now func() time.Time

	authenticator auth.Authenticator
}

// SetupGoGuardian enables basic auth for token issuance and JWT bearer tokens
// for every other call
func (m *MiddlewareDB) SetupGoGuardian() {
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	m.authenticator = auth.New()
	m.authenticator.EnableStrategy(basic.StrategyKey, basic.New(m.ValidateUser, cache))
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(m.ValidateToken, cache))
}

// Middleware authenticates the request and stores the caller on its context
func (m *MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		info, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "unauthorized"}`))
			return
		}
		if expired(info, m.now()) {
			zap.S().Debugw("unauthorized", "url", r.URL.Path, "error", "token is expired")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "unauthorized"}`))
			return
		}
		principal, err := principalFromInfo(info)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "unauthorized"}`))
			return
		}
		zap.S().Debugw("user authenticated", "userId", principal.ID, "role", principal.Role)
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// CreateToken issues a signed token for the authenticated caller
func (m *MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, `{"message": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := m.Tokens.Issue(principal)
	if err != nil {
		zap.S().Errorw("failed to issue token", "userId", principal.ID, "error", err)
		http.Error(w, `{"message": "failed to issue token"}`, http.StatusInternalServerError)
		return
	}

	b, err := json.Marshal(models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    principal.ID,
		Role:      principal.Role,
	})
	if err != nil {
		http.Error(w, `{"message": "failed to marshal response"}`, http.StatusInternalServerError)
		return
	}
	w.Write(b)
}

// ValidateUser checks an email and password pair against the users collection
func (m *MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	user, err := m.DB.FindByEmail(ctx, email)
	if errors.Is(err, databases.ErrNotFound) {
		return nil, fmt.Errorf("no matching email found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return auth.NewDefaultUser(user.Email, user.ID.Hex(), []string{string(user.Role)}, nil), nil
}

// ValidateToken verifies a bearer JWT
func (m *MiddlewareDB) ValidateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	p, expiresAt, err := m.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	ext := map[string][]string{
		tokenExpiryExtension: {strconv.FormatInt(expiresAt.Unix(), 10)},
	}
	return auth.NewDefaultUser(p.ID, p.ID, []string{string(p.Role)}, ext), nil
}

func (m *MiddlewareDB) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// expired reports whether info came from a bearer token whose expiry has
// passed. Basic credentials carry no expiry.
func expired(info auth.Info, now time.Time) bool {
	v := info.Extensions()[tokenExpiryExtension]
	if len(v) == 0 {
		return false
	}
	sec, err := strconv.ParseInt(v[0], 10, 64)
	if err != nil {
		return true
	}
	return !now.Before(time.Unix(sec, 0))
}

// PrincipalFromQuery resolves the caller of a request that cannot send
// headers, such as a browser websocket, from its token query parameter
func (m *MiddlewareDB) PrincipalFromQuery(r *http.Request) (models.Principal, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return models.Principal{}, tokens.ErrInvalidToken
	}
	return m.Tokens.Verify(token)
}

func principalFromInfo(info auth.Info) (models.Principal, error) {
	groups := info.Groups()
	if info.ID() == "" || len(groups) == 0 {
		return models.Principal{}, fmt.Errorf("authenticated user has no role")
	}
	role := models.Role(groups[0])
	if !role.Valid() {
		return models.Principal{}, fmt.Errorf("unknown role %q", role)
	}
	return models.Principal{ID: info.ID(), Role: role}, nil
}

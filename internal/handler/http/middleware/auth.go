package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/christopherklint97/teamtime/internal/directory"
	"github.com/christopherklint97/teamtime/internal/handler/http/response"
	"github.com/christopherklint97/teamtime/internal/teamleader"
)

type ctxKey int

const (
	tokenKey ctxKey = iota
	employeeKey
)

// Identity resolves the provider user behind an access token.
type Identity interface {
	Me(ctx context.Context, token string) (*teamleader.User, error)
}

// Resolver looks up local employee settings.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*directory.Employee, error)
}

// Token returns the bearer token stored by AuthRequired.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Employee returns the caller resolved by RequirePermission.
func Employee(ctx context.Context) (*directory.Employee, bool) {
	e, ok := ctx.Value(employeeKey).(*directory.Employee)
	return e, ok
}

// AuthRequired takes the provider access token from the Authorization
// header. The token is passed on untouched; the provider validates it.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(w, "Missing bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey, token)))
	})
}

// RequirePermission checks that the caller has the feature enabled in the
// employee directory.
func RequirePermission(identity Identity, dir Resolver, feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, err := identity.Me(ctx, Token(ctx))
			if err != nil {
				response.HandleError(w, err)
				return
			}

			emp, err := dir.Resolve(ctx, user.ID)
			if errors.Is(err, directory.ErrNotFound) {
				response.Forbidden(w, "Caller is not in the employee directory")
				return
			}
			if err != nil {
				response.HandleError(w, err)
				return
			}
			if !emp.Permissions.Allows(feature) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", feature))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, employeeKey, emp)))
		})
	}
}

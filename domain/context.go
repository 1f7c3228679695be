package domain

import "context"

type principalContextKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the Principal stored by the authentication middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

package rbac

import "context"

type principalContextKey struct{}

type resolution struct {
	principal Principal
	ok        bool
}

// ContextWithPrincipal stores an authenticated principal in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, resolution{principal: p, ok: true})
}

// contextWithAnonymous records that resolution ran and found nobody.
func contextWithAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalContextKey{}, resolution{})
}

// PrincipalFromContext returns the principal resolved for this request, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	res, _ := ctx.Value(principalContextKey{}).(resolution)
	return res.principal, res.ok
}

func resolutionFromContext(ctx context.Context) (resolution, bool) {
	res, found := ctx.Value(principalContextKey{}).(resolution)
	return res, found
}

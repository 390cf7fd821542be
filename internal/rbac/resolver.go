package rbac

import (
	"net/http"
)

// Resolver extracts the authenticated principal from a request. Implementations
// must treat every failure as "no principal" and must not write to any store.
type Resolver interface {
	Resolve(r *http.Request) (Principal, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (Principal, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(r *http.Request) (Principal, bool) {
	return f(r)
}

// ChainResolver tries each resolver in order and returns the first principal found.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(r *http.Request) (Principal, bool) {
	for _, resolver := range c {
		if resolver == nil {
			continue
		}
		if p, ok := resolver.Resolve(r); ok {
			return p, true
		}
	}
	return Principal{}, false
}

// Authenticate resolves the principal once and stores the outcome in the request
// context for the guard, the checker and the handlers downstream.
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if p, ok := safeResolve(resolver, r); ok {
				ctx = ContextWithPrincipal(ctx, p)
			} else {
				ctx = contextWithAnonymous(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalFor prefers the outcome recorded by Authenticate and only resolves
// itself when that middleware did not run.
func principalFor(resolver Resolver, r *http.Request) (Principal, bool) {
	if res, found := resolutionFromContext(r.Context()); found {
		return res.principal, res.ok
	}
	return safeResolve(resolver, r)
}

func safeResolve(resolver Resolver, r *http.Request) (p Principal, ok bool) {
	if resolver == nil {
		return Principal{}, false
	}
	defer func() {
		if recover() != nil {
			p, ok = Principal{}, false
		}
	}()
	p, ok = resolver.Resolve(r)
	if ok && p.Validate() != nil {
		return Principal{}, false
	}
	return p, ok
}

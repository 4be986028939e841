// Package gateway wraps a grpc-gateway runtime.ServeMux with plain
// net/http middleware and route-group registration.
package gateway

import (
	"net/http"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/yorulabs/skills-mcp/pkg/logger"
)

// HTTPMiddlewareFunc wraps an http.HandlerFunc.
type HTTPMiddlewareFunc func(http.HandlerFunc) http.HandlerFunc

// Gateway is a runtime.ServeMux plus middleware chains.
type Gateway struct {
	mux           *gwruntime.ServeMux
	premiddleware []HTTPMiddlewareFunc
	middleware    []HTTPMiddlewareFunc
}

// New creates a Gateway with the given ServeMux options.
func New(opts ...gwruntime.ServeMuxOption) *Gateway {
	return &Gateway{mux: gwruntime.NewServeMux(opts...)}
}

// Mux returns the underlying ServeMux.
func (gw *Gateway) Mux() *gwruntime.ServeMux {
	return gw.mux
}

func applyMiddleware(h http.HandlerFunc, middleware ...HTTPMiddlewareFunc) http.HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// ServeHTTP dispatches through the middleware chains into the mux.
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := func(w http.ResponseWriter, r *http.Request) {
		gw.mux.ServeHTTP(w, r)
	}

	h = applyMiddleware(h, gw.middleware...)
	if gw.premiddleware != nil {
		h = applyMiddleware(h, gw.premiddleware...)
	}

	h(w, r)
}

// Use adds middleware run after routing.
func (gw *Gateway) Use(middleware ...HTTPMiddlewareFunc) {
	gw.middleware = append(gw.middleware, middleware...)
}

// Pre adds middleware run before routing.
func (gw *Gateway) Pre(middleware ...HTTPMiddlewareFunc) {
	gw.premiddleware = append(gw.premiddleware, middleware...)
}

// MiddlewareFunc wraps a gateway runtime handler.
type MiddlewareFunc func(gwruntime.HandlerFunc) gwruntime.HandlerFunc

// Group registers routes under a shared path prefix.
type Group struct {
	prefix     string
	gw         *Gateway
	middleware []MiddlewareFunc
}

// Group creates a route group under prefix.
func (gw *Gateway) Group(prefix string, m ...MiddlewareFunc) *Group {
	g := &Group{prefix: prefix, gw: gw}
	g.Use(m...)
	return g
}

// Use adds group-level middleware.
func (g *Group) Use(middleware ...MiddlewareFunc) {
	g.middleware = append(g.middleware, middleware...)
}

// GET registers a GET route.
func (g *Group) GET(path string, h gwruntime.HandlerFunc, m ...MiddlewareFunc) {
	g.add("GET", path, h, append(g.middleware, m...)...)
}

// POST registers a POST route.
func (g *Group) POST(path string, h gwruntime.HandlerFunc, m ...MiddlewareFunc) {
	g.add("POST", path, h, append(g.middleware, m...)...)
}

// PUT registers a PUT route.
func (g *Group) PUT(path string, h gwruntime.HandlerFunc, m ...MiddlewareFunc) {
	g.add("PUT", path, h, append(g.middleware, m...)...)
}

// DELETE registers a DELETE route.
func (g *Group) DELETE(path string, h gwruntime.HandlerFunc, m ...MiddlewareFunc) {
	g.add("DELETE", path, h, append(g.middleware, m...)...)
}

func (g *Group) add(method, path string, h gwruntime.HandlerFunc, middleware ...MiddlewareFunc) {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	if err := g.gw.mux.HandlePath(method, g.prefix+path, h); err != nil {
		logger.Fatalf("Failed to register route %s %s%s: %v", method, g.prefix, path, err)
	}
}

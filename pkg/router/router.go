// Package router is a small method-aware router with trailing and
// single-segment wildcards.
package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ml-pipelines/pkg/logger"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Middleware wraps the whole router.
type Middleware func(http.Handler) http.Handler

type route struct {
	method  string
	pattern string
	handler http.Handler
}

type Router struct {
	routes     []route
	paths      map[string]bool
	middleware []Middleware
}

func New() *Router {
	return &Router{paths: make(map[string]bool)}
}

// Use adds middleware. The first added runs outermost.
func (r *Router) Use(m ...Middleware) {
	r.middleware = append(r.middleware, m...)
}

// Exact routes win over wildcard routes; among wildcard routes the first
// registered match wins.
func (r *Router) match(method, path string) (http.Handler, bool) {
	pathKnown := false
	for _, rt := range r.routes {
		if rt.pattern == path {
			pathKnown = true
			if rt.method == method {
				return rt.handler, true
			}
		}
	}
	for _, rt := range r.routes {
		if !strings.Contains(rt.pattern, "*") || !matchWildcardRoute(path, rt.pattern) {
			continue
		}
		pathKnown = true
		if rt.method == method {
			return rt.handler, true
		}
	}
	return nil, pathKnown
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	h, known := r.match(req.Method, req.URL.Path)
	switch {
	case h != nil:
		h.ServeHTTP(lrw, req)
	case known:
		http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		http.Error(lrw, "Not Found", http.StatusNotFound)
	}

	logger.Info("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", lrw.statusCode,
		"duration", time.Since(start),
	)
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern
func matchWildcardRoute(requestPath, routePattern string) bool {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	// A trailing wildcard matches one or more remaining segments.
	if routeSegments[len(routeSegments)-1] == "*" {
		if len(requestSegments) < len(routeSegments) {
			return false
		}
		for i := 0; i < len(routeSegments)-1; i++ {
			if routeSegments[i] != "*" && requestSegments[i] != routeSegments[i] {
				return false
			}
		}
		return requestSegments[len(routeSegments)-1] != ""
	}

	if len(requestSegments) != len(routeSegments) {
		return false
	}
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			if requestSegments[i] == "" {
				return false
			}
			continue
		}
		if requestSegments[i] != routeSegment {
			return false
		}
	}
	return true
}

func (r *Router) register(method, path string, handler http.Handler) {
	r.routes = append(r.routes, route{method: method, pattern: path, handler: handler})
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc) {
	r.register(http.MethodGet, path, http.HandlerFunc(handler))
}
func (r *Router) POST(path string, handler HandlerFunc) {
	r.register(http.MethodPost, path, http.HandlerFunc(handler))
}
func (r *Router) PUT(path string, handler HandlerFunc) {
	r.register(http.MethodPut, path, http.HandlerFunc(handler))
}
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, http.HandlerFunc(handler))
}

// Handle registers a plain http.Handler, such as promhttp or the swagger UI.
func (r *Router) Handle(method, path string, handler http.Handler) {
	r.register(method, path, handler)
}

// Paths returns the registered route patterns.
func (r *Router) Paths() map[string]bool {
	return r.paths
}

// Handler returns the router with its middleware applied.
func (r *Router) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(r.dispatch)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](h)
	}
	return h
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (r *Router) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// loggingResponseWriter captures the status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

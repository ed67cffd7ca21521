package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine      *gin.Engine
	apiVersion  string
	registrars  []RouteRegistrar
	middlewares []gin.HandlerFunc
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends middleware applied to every route registered via Setup
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middlewares = append(r.middlewares, middleware...)
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under the versioned API group
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	api.Use(r.middlewares...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

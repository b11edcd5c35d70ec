// Package navigation holds the client's route table and navigation history.
package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// Routes
const (
	RouteDashboard       = "/"
	RouteLogin           = "/login"
	RouteRegister        = "/register"
	RouteForgotPassword  = "/forgetpassword"
	RouteOTPVerification = "/otpVerifications"
	RouteResetPassword   = "/resetPassword"
)

// ParamEmail is the query parameter carrying the address through password recovery
const ParamEmail = "email"

// ErrUnknownRoute is returned when navigating to a path outside the route table
var ErrUnknownRoute = errors.New("unknown route")

var routes = map[string]bool{
	RouteDashboard:       true,
	RouteLogin:           true,
	RouteRegister:        true,
	RouteForgotPassword:  true,
	RouteOTPVerification: true,
	RouteResetPassword:   true,
}

// Location is a parsed route with its query parameters
type Location struct {
	Path  string
	Query url.Values
}

// Param returns the first value of a query parameter
func (l Location) Param(key string) string {
	return l.Query.Get(key)
}

// String renders the location back into path?query form
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Parse validates raw against the route table
func Parse(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	path := u.Path
	if path == "" {
		path = RouteDashboard
	}
	if !routes[path] {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	return Location{Path: path, Query: u.Query()}, nil
}

// WithEmail builds route?email=<email> with the address query-escaped
func WithEmail(route, email string) string {
	q := url.Values{}
	q.Set(ParamEmail, email)
	return route + "?" + q.Encode()
}

// Navigator moves the client to another route
type Navigator interface {
	Navigate(to string) error
}

// Router records where the client has been
type Router struct {
	mu      sync.Mutex
	history []Location
}

// NewRouter creates a router positioned at start
func NewRouter(start string) (*Router, error) {
	loc, err := Parse(start)
	if err != nil {
		return nil, err
	}
	return &Router{history: []Location{loc}}, nil
}

// Navigate pushes a new location
func (r *Router) Navigate(to string) error {
	loc, err := Parse(to)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, loc)
	return nil
}

// Current returns the active location
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

// History returns every visited location, oldest first
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, len(r.history))
	copy(out, r.history)
	return out
}

// Package apitest runs an in-memory stand-in for the travel-activity REST
// API. Routes can be made to fail and every call is counted so tests can
// assert that no request was sent.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"storefront.app/pkg/apiclient"
	"storefront.app/pkg/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	Version = "v1"
	APIKey  = "test-api-key"
)

type account struct {
	user     apiclient.User
	password string
}

type failure struct {
	status  int
	message string
	// raw replaces the JSON body when set
	raw string
}

// Server is the fake API. Exported slices may be seeded before requests
// are made; after that use the helper methods, which lock.
type Server struct {
	*httptest.Server

	// OmitCreated makes create endpoints answer without the created
	// entity, like the hosted API does for carts and transactions.
	OmitCreated bool

	mu           sync.Mutex
	accounts     map[string]*account
	tokens       map[string]string
	activities   *collection[apiclient.Activity]
	categories   *collection[apiclient.Category]
	banners      *collection[apiclient.Banner]
	promos       *collection[apiclient.Promo]
	payments     []apiclient.PaymentMethod
	carts        []apiclient.CartItem
	transactions []apiclient.Transaction

	failures map[string]failure
	calls    map[string]int
	headers  map[string]http.Header
	total    int
}

// New starts a server that is closed when t finishes
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts:   map[string]*account{},
		tokens:     map[string]string{},
		activities: newCollection(func(a *apiclient.Activity) *string { return &a.ID }),
		categories: newCollection(func(c *apiclient.Category) *string { return &c.ID }),
		banners:    newCollection(func(b *apiclient.Banner) *string { return &b.ID }),
		promos:     newCollection(func(p *apiclient.Promo) *string { return &p.ID }),
		failures:   map[string]failure{},
		calls:      map[string]int{},
		headers:    map[string]http.Header{},
	}

	r := chi.NewRouter()
	r.Route("/api/"+Version, func(r chi.Router) {
		s.routes(r)
	})
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BasePath is the value for apiclient.Options.BasePath
func (s *Server) BasePath() string {
	return s.URL + "/api/" + Version
}

// Client returns an apiclient.Client pointed at the server
func (s *Server) Client(storage session.Storage) *apiclient.Client {
	return apiclient.New(apiclient.Options{BasePath: s.BasePath(), APIKey: APIKey}, storage)
}

func routeKey(method, pattern string) string {
	return strings.ToUpper(method) + " " + pattern
}

// Fail makes method+pattern answer status with {"message": message}.
// pattern is the chi route, e.g. "/activities/{id}".
func (s *Server) Fail(method, pattern string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, pattern)] = failure{status: status, message: message}
}

// FailRaw makes method+pattern answer status with a verbatim body
func (s *Server) FailRaw(method, pattern string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, pattern)] = failure{status: status, raw: body}
}

// Recover removes an injected failure
func (s *Server) Recover(method, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, routeKey(method, pattern))
}

// Calls returns how many requests reached method+pattern
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, pattern)]
}

// TotalCalls returns the number of requests routed so far
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// LastHeaders returns the headers of the latest request to method+pattern
func (s *Server) LastHeaders(method, pattern string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[routeKey(method, pattern)]
}

// handle registers h behind call counting and failure injection
func (s *Server) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := routeKey(method, pattern)
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[key]++
		s.total++
		s.headers[key] = req.Header.Clone()
		f, failing := s.failures[key]
		s.mu.Unlock()

		if req.Header.Get("apiKey") != APIKey {
			writeError(w, http.StatusForbidden, "apiKey is invalid")
			return
		}
		if failing {
			if f.raw != "" {
				w.WriteHeader(f.status)
				_, _ = w.Write([]byte(f.raw))
				return
			}
			writeError(w, f.status, f.message)
			return
		}
		h(w, req)
	}))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"code":    "200",
		"status":  "OK",
		"message": message,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"code":    http.StatusText(status),
		"status":  "ERROR",
		"message": message,
	})
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func newID() string {
	return uuid.NewString()
}

func now() apiclient.Time {
	return apiclient.Time{Time: time.Now().UTC()}
}

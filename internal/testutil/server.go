package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Row is one JSON object as the pet-tracker API stores and returns it.
type Row map[string]any

// Request records one request received by FakeAPIServer.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          Row
}

// FakeAPIServer is an httptest server speaking the pet-tracker REST API
// under /api. Rows are returned in seed order.
type FakeAPIServer struct {
	*httptest.Server

	mu        sync.Mutex
	email     string
	password  string
	token     string
	userID    int64
	envelope  bool
	rows      map[string][]Row
	failures  map[string]int
	requests  []Request
	nextID    int64
	loggedOut bool
}

// NewFakeAPIServer starts a server that accepts email/password and issues
// token. It is closed when the test completes.
func NewFakeAPIServer(t *testing.T, email, password, token string) *FakeAPIServer {
	t.Helper()

	s := &FakeAPIServer{
		email:    email,
		password: password,
		token:    token,
		userID:   1,
		rows:     make(map[string][]Row),
		failures: make(map[string]int),
		nextID:   500,
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/auth/logout", s.logout)
			r.Get("/pets", s.list("pets"))
			for _, res := range []string{"feedings", "walks", "baths", "weights"} {
				r.Get("/"+res, s.list(res))
				r.Post("/"+res, s.create(res))
			}
			for _, res := range []string{"feedings", "walks"} {
				r.Patch("/"+res+"/{id}", s.update(res))
				r.Delete("/"+res+"/{id}", s.remove(res))
			}
		})
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root to configure clients with.
func (s *FakeAPIServer) BaseURL() string {
	return s.URL + "/api"
}

// UseEnvelope switches list responses between bare arrays and {"data": [...]}.
func (s *FakeAPIServer) UseEnvelope(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelope = on
}

// SetToken changes the token the server accepts, invalidating the old one.
func (s *FakeAPIServer) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Seed appends rows to a resource ("pets", "feedings", "walks", "baths",
// "weights").
func (s *FakeAPIServer) Seed(resource string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[resource] = append(s.rows[resource], rows...)
}

// Rows returns a copy of the rows of a resource.
func (s *FakeAPIServer) Rows(resource string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows[resource]))
	copy(out, s.rows[resource])
	return out
}

// FailWith makes requests matching "METHOD /path" (query excluded, path
// relative to /api) answer with status until cleared with status 0.
func (s *FakeAPIServer) FailWith(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Requests returns the requests received so far.
func (s *FakeAPIServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LoggedOut reports whether POST /auth/logout was called with a valid token.
func (s *FakeAPIServer) LoggedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedOut
}

func (s *FakeAPIServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			r.Body.Close()
			if len(data) > 0 {
				_ = json.Unmarshal(data, &req.Body)
			}
			r.Body = io.NopCloser(strings.NewReader(string(data)))
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		status := s.failures[req.Method+" "+req.Path]
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, fmt.Sprintf("injected failure %d", status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeAPIServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := "Bearer " + s.token
		s.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, Row{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeAPIServer) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Row{"message": "bad request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.Email != s.email || body.Password != s.password {
		writeJSON(w, http.StatusUnauthorized, Row{"message": "Invalid credentials"})
		return
	}
	s.loggedOut = false
	writeJSON(w, http.StatusOK, Row{
		"user": Row{
			"id":            s.userID,
			"email":         s.email,
			"first_name":    "Kari",
			"last_name":     "Nordmann",
			"date_of_birth": nil,
		},
		"token": s.token,
	})
}

func (s *FakeAPIServer) logout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.loggedOut = true
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *FakeAPIServer) list(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := r.URL.Query().Get("pet_id")

		s.mu.Lock()
		out := make([]Row, 0)
		for _, row := range s.rows[resource] {
			if petID != "" && fmt.Sprint(row["pet_id"]) != petID {
				continue
			}
			out = append(out, row)
		}
		envelope := s.envelope
		s.mu.Unlock()

		if envelope {
			writeJSON(w, http.StatusOK, Row{"data": out})
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *FakeAPIServer) create(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var row Row
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, Row{"message": err.Error()})
			return
		}

		s.mu.Lock()
		s.nextID++
		row["id"] = s.nextID
		row["user_id"] = s.userID
		s.rows[resource] = append(s.rows[resource], row)
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, row)
	}
}

func (s *FakeAPIServer) update(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusNotFound, Row{"message": "not found"})
			return
		}
		var patch Row
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, Row{"message": err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range s.rows[resource] {
			if rowID(row) == id {
				for k, v := range patch {
					row[k] = v
				}
				writeJSON(w, http.StatusOK, row)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, Row{"message": "not found"})
	}
}

func (s *FakeAPIServer) remove(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

		s.mu.Lock()
		defer s.mu.Unlock()
		rows := s.rows[resource]
		for i, row := range rows {
			if rowID(row) == id {
				s.rows[resource] = append(rows[:i:i], rows[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, Row{"message": "not found"})
	}
}

// rowID reads the id of a seeded (int) or decoded (float64) row.
func rowID(row Row) int64 {
	switch v := row["id"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

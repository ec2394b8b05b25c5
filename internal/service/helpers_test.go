package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/database"
	"deadlock-tracker/internal/db"
	"deadlock-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type openAdmitter struct{}

func (openAdmitter) Consume(context.Context) error { return nil }

// upstream is a fake statistics service that counts hits per path.
type upstream struct {
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newUpstream() *upstream {
	return &upstream{hits: map[string]int{}, routes: map[string]func(http.ResponseWriter, *http.Request){}}
}

func (u *upstream) handle(path string, fn func(w http.ResponseWriter, r *http.Request)) {
	u.routes[path] = fn
}

func (u *upstream) json(path string, status int, body string) {
	u.handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	fn, ok := u.routes[r.URL.Path]
	u.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fn(w, r)
}

func fastRetrier() *Retrier {
	return &Retrier{attempts: 3, base: time.Millisecond, logger: zerolog.Nop()}
}

func newTestAPIClient(t *testing.T, u *upstream) *api.Client {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return api.NewClient(&config.Config{BaseURL: base}, openAdmitter{}, nil, zerolog.Nop())
}

func newTestRepository(t *testing.T) *repository.PlayerRepository {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "service.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return repository.NewPlayerRepository(sqlDB, db.New(sqlDB), zerolog.Nop())
}

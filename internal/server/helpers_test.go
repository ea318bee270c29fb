package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"

	. "github.com/onsi/gomega"

	"github.com/jscorp/hostpanel/internal/auth"
	"github.com/jscorp/hostpanel/internal/config"
	"github.com/jscorp/hostpanel/internal/diagnostics"
	"github.com/jscorp/hostpanel/internal/events"
	"github.com/jscorp/hostpanel/internal/metrics"
	"github.com/jscorp/hostpanel/internal/plugins"
	"github.com/jscorp/hostpanel/internal/plugins/storage"
	"github.com/jscorp/hostpanel/internal/prefs"
	"github.com/jscorp/hostpanel/internal/seed"
	"github.com/jscorp/hostpanel/internal/stats"
	"github.com/jscorp/hostpanel/internal/store"
)

const (
	testUsername = "admin"
	testPassword = "admin123"
	loginPath    = "/admin-login.html"
)

type testEnv struct {
	app    *App
	server *httptest.Server
	client *http.Client
}

func newTestEnv() *testEnv {
	ctx := context.Background()

	registry := plugins.NewRegistry()
	Expect(registry.Register(plugins.PluginTypeStorage, "memory", func() plugins.Plugin {
		return storage.NewMemoryStorage()
	})).To(Succeed())
	Expect(registry.Initialize(ctx, &plugins.RegistryConfig{Storage: "memory"})).To(Succeed())
	substrate := registry.Storage()

	bus := events.NewBus()
	var agg *stats.Aggregator
	m := metrics.New(metrics.StatsSourceFunc(func(ctx context.Context) (stats.Stats, error) {
		return agg.GetStats(ctx)
	}))
	s := store.New(substrate, store.WithNotifier(bus), store.WithObserver(m))
	agg = stats.New(s)

	_, err := seed.NewSeeder(s).SeedAll(ctx, seed.DefaultFixtures())
	Expect(err).NotTo(HaveOccurred())

	gate, err := auth.NewGate(substrate, auth.Config{
		Username: testUsername,
		Password: testPassword,
		Secret:   []byte("server-test-secret"),
	})
	Expect(err).NotTo(HaveOccurred())

	cfg := &config.Config{
		Storage:       "memory",
		AdminUsername: testUsername,
		AdminPassword: testPassword,
		SessionSecret: "server-test-secret",
		LoginPath:     loginPath,
	}
	app := &App{
		Store:       s,
		Gate:        gate,
		Stats:       agg,
		Themes:      prefs.NewThemes(substrate),
		Bus:         bus,
		Metrics:     m,
		Plugins:     registry,
		Diagnostics: diagnostics.NewCollector(cfg, registry, agg, time.Now()),
		Config:      cfg,
	}

	srv := httptest.NewServer(app.Handler())
	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{app: app, server: srv, client: client}
}

func (e *testEnv) Close() {
	e.server.Close()
}

func (e *testEnv) do(method, path string, body any) *http.Response {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func (e *testEnv) login() {
	resp := e.do(http.MethodPost, "/api/auth/login", map[string]any{
		"username": testUsername,
		"password": testPassword,
	})
	defer resp.Body.Close()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
}

func decode[T any](resp *http.Response) T {
	defer resp.Body.Close()
	var v T
	Expect(json.NewDecoder(resp.Body).Decode(&v)).To(Succeed())
	return v
}

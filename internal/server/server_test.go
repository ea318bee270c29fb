package server

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jscorp/hostpanel/internal/auth"
	"github.com/jscorp/hostpanel/internal/middleware"
	"github.com/jscorp/hostpanel/internal/seed"
)

var _ = Describe("Server", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	AfterEach(func() {
		env.Close()
	})

	Describe("observability", func() {
		It("reports liveness", func() {
			resp := env.do(http.MethodGet, "/healthz", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[map[string]string](resp)).To(HaveKeyWithValue("status", "ok"))
		})

		It("reports readiness from the storage plugin", func() {
			resp := env.do(http.MethodGet, "/readyz", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body := decode[map[string]any](resp)
			Expect(body).To(HaveKeyWithValue("status", "ready"))
			Expect(body["plugins"]).To(HaveLen(1))
		})

		It("exports dashboard gauges", func() {
			resp := env.do(http.MethodGet, "/metrics", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var text strings.Builder
			sc := bufio.NewScanner(resp.Body)
			for sc.Scan() {
				text.WriteString(sc.Text() + "\n")
			}
			Expect(text.String()).To(ContainSubstring("hostpanel_packages 3"))
			Expect(text.String()).To(ContainSubstring("hostpanel_revenue_active 1.071e+06"))
		})

		It("sets security headers and a request id", func() {
			resp := env.do(http.MethodGet, "/healthz", nil)
			resp.Body.Close()
			Expect(resp.Header.Get("X-Frame-Options")).To(Equal("DENY"))
			Expect(resp.Header.Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
		})
	})

	Describe("authentication", func() {
		It("rejects wrong credentials with the failure message", func() {
			resp := env.do(http.MethodPost, "/api/auth/login", map[string]any{
				"username": "admin", "password": "nope",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			body := decode[map[string]any](resp)
			Expect(body).To(HaveKeyWithValue("success", false))
			Expect(body).To(HaveKeyWithValue("message", auth.MessageLoginFailed))
		})

		It("logs in, sets the session cookie and reports the user", func() {
			resp := env.do(http.MethodPost, "/api/auth/login", map[string]any{
				"username": testUsername, "password": testPassword, "remember_me": true,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var cookie *http.Cookie
			for _, c := range resp.Cookies() {
				if c.Name == middleware.SessionCookie {
					cookie = c
				}
			}
			Expect(cookie).NotTo(BeNil())
			Expect(cookie.HttpOnly).To(BeTrue())
			Expect(cookie.Expires).To(BeTemporally(">", time.Now().Add(29*24*time.Hour)))
			body := decode[map[string]any](resp)
			Expect(body).To(HaveKeyWithValue("message", auth.MessageLoginOK))
			Expect(body).NotTo(HaveKey("token"))

			me := env.do(http.MethodGet, "/api/auth/me", nil)
			Expect(me.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[map[string]any](me)).To(HaveKeyWithValue("username", testUsername))
		})

		It("accepts the token as a bearer header", func() {
			res, err := env.app.Gate.Login(context.Background(), testUsername, testPassword, false)
			Expect(err).NotTo(HaveOccurred())

			req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/customers", nil)
			req.Header.Set("Authorization", "Bearer "+res.Token)
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("logs out and redirects to the login page", func() {
			env.login()

			resp := env.do(http.MethodPost, "/api/auth/logout", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
			Expect(resp.Header.Get("Location")).To(Equal(loginPath))

			me := env.do(http.MethodGet, "/api/auth/me", nil)
			me.Body.Close()
			Expect(me.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("invalidates an older token after a new login", func() {
			first, err := env.app.Gate.Login(context.Background(), testUsername, testPassword, false)
			Expect(err).NotTo(HaveOccurred())
			env.login()

			req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/orders", nil)
			req.Header.Set("Authorization", "Bearer "+first.Token)
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("throttles repeated login attempts", func() {
			env.app.LoginLimiter = middleware.NewRateLimiter(0.01, 2)
			defer env.app.LoginLimiter.Stop()
			limited := httptest.NewServer(env.app.Handler())
			defer limited.Close()

			codes := make([]int, 0, 3)
			for range 3 {
				resp, err := http.Post(limited.URL+"/api/auth/login", "application/json",
					strings.NewReader(`{"username":"admin","password":"bad"}`))
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				codes = append(codes, resp.StatusCode)
			}
			Expect(codes).To(Equal([]int{
				http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests,
			}))
		})
	})

	Describe("records", func() {
		It("serves packages publicly", func() {
			resp := env.do(http.MethodGet, "/api/packages", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode[[]map[string]any](resp)).To(HaveLen(3))
		})

		It("searches packages by field", func() {
			resp := env.do(http.MethodGet, "/api/packages?q=busi&fields=name", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			pkgs := decode[[]map[string]any](resp)
			Expect(pkgs).To(HaveLen(1))
			Expect(pkgs[0]).To(HaveKeyWithValue("name", "Business"))
		})

		It("protects customers from anonymous callers", func() {
			resp := env.do(http.MethodGet, "/api/customers", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("protects package writes", func() {
			resp := env.do(http.MethodPost, "/api/packages", map[string]any{"name": "X", "status": "active"})
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("runs a full customer lifecycle", func() {
			env.login()

			resp := env.do(http.MethodPost, "/api/customers", map[string]any{
				"name": "Rina", "email": "rina@example.com", "status": "active",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			created := decode[map[string]any](resp)
			id, _ := created["id"].(string)
			Expect(id).To(HavePrefix("id_"))
			Expect(resp.Header.Get("Location")).To(Equal("/api/customers/" + id))
			Expect(created["created_at"]).To(Equal(created["updated_at"]))

			resp = env.do(http.MethodPut, "/api/customers/"+id, map[string]any{"company": "Rina Co"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			updated := decode[map[string]any](resp)
			Expect(updated).To(HaveKeyWithValue("company", "Rina Co"))
			Expect(updated).To(HaveKeyWithValue("name", "Rina"))
			Expect(updated).To(HaveKeyWithValue("created_at", created["created_at"]))

			resp = env.do(http.MethodGet, "/api/customers/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()

			resp = env.do(http.MethodDelete, "/api/customers/"+id, nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = env.do(http.MethodDelete, "/api/customers/"+id, nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = env.do(http.MethodGet, "/api/customers/"+id, nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("accepts order statuses outside the built-in set", func() {
			env.login()

			resp := env.do(http.MethodPost, "/api/orders", map[string]any{
				"order_number":  "ORD-20260301-009",
				"customer_id":   "id_missing_customer",
				"package_id":    "id_missing_package",
				"billing_cycle": "monthly",
				"amount":        15000,
				"status":        "expired",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(decode[map[string]any](resp)).To(HaveKeyWithValue("status", "expired"))
		})

		It("rejects invalid records", func() {
			env.login()

			resp := env.do(http.MethodPost, "/api/orders", map[string]any{"order_number": "ORD-1"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decode[map[string]string](resp)["error"]).To(ContainSubstring("customer_id"))

			resp = env.do(http.MethodPut, "/api/orders/missing", map[string]any{"status": "active"})
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/orders", strings.NewReader("{"))
			raw, err := env.client.Do(req)
			Expect(err).NotTo(HaveOccurred())
			raw.Body.Close()
			Expect(raw.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("landing page", func() {
		It("lists active packages with the second marked popular", func() {
			resp := env.do(http.MethodGet, "/api/catalog", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			entries := decode[[]map[string]any](resp)
			Expect(entries).To(HaveLen(3))
			Expect(entries[0]).To(HaveKeyWithValue("popular", false))
			Expect(entries[1]).To(HaveKeyWithValue("popular", true))
			Expect(entries[1]).To(HaveKeyWithValue("name", "Professional"))
			Expect(entries[0]["price_monthly_formatted"]).To(HavePrefix("Rp "))
		})

		It("serves the theme publicly but only lets the admin change it", func() {
			resp := env.do(http.MethodGet, "/api/theme", nil)
			Expect(decode[map[string]string](resp)).To(HaveKeyWithValue("theme", "light"))

			resp = env.do(http.MethodPut, "/api/theme", map[string]string{"theme": "dark"})
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			resp = env.do(http.MethodPost, "/api/theme/toggle", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			resp = env.do(http.MethodGet, "/api/theme", nil)
			Expect(decode[map[string]string](resp)).To(HaveKeyWithValue("theme", "light"))
		})

		It("stores and toggles the theme for the admin", func() {
			env.login()

			resp := env.do(http.MethodPut, "/api/theme", map[string]string{"theme": "purple"})
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			resp = env.do(http.MethodPost, "/api/theme/toggle", nil)
			Expect(decode[map[string]string](resp)).To(HaveKeyWithValue("theme", "dark"))

			resp = env.do(http.MethodPut, "/api/theme", map[string]string{"theme": "light"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("streams package changes over SSE", func() {
			resp := env.do(http.MethodGet, "/api/events", nil)
			defer resp.Body.Close()
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

			lines := make(chan string, 16)
			go func() {
				defer GinkgoRecover()
				sc := bufio.NewScanner(resp.Body)
				for sc.Scan() {
					lines <- sc.Text()
				}
				close(lines)
			}()
			Eventually(lines).Should(Receive(Equal("event: connected")))
			Eventually(env.app.Bus.SubscriberCount).Should(Equal(1))

			env.login()
			create := env.do(http.MethodPost, "/api/packages", map[string]any{"name": "Enterprise", "status": "active"})
			create.Body.Close()
			Expect(create.StatusCode).To(Equal(http.StatusCreated))

			Eventually(lines).Should(Receive(Equal("event: packages")))
			Eventually(lines).Should(Receive(ContainSubstring("Enterprise")))
		})
	})

	Describe("dashboard", func() {
		BeforeEach(func() {
			env.login()
		})

		It("returns stats with formatted revenue", func() {
			resp := env.do(http.MethodGet, "/api/dashboard/stats", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body := decode[map[string]any](resp)
			Expect(body).To(HaveKeyWithValue("total_packages", BeNumerically("==", 3)))
			Expect(body).To(HaveKeyWithValue("active_orders", BeNumerically("==", 3)))
			Expect(body).To(HaveKeyWithValue("total_revenue", BeNumerically("==", 1071000)))
			Expect(body).To(HaveKeyWithValue("total_revenue_formatted", "Rp 1.071.000"))
		})

		It("returns enriched recent activity", func() {
			resp := env.do(http.MethodGet, "/api/dashboard/activity?limit=2", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			entries := decode[[]map[string]any](resp)
			Expect(entries).To(HaveLen(2))
			for _, e := range entries {
				Expect(e).To(HaveKey("customer_name"))
				Expect(e).To(HaveKey("package_name"))
				Expect(e["amount_formatted"]).To(HavePrefix("Rp "))
				Expect(e).To(HaveKey("status_badge"))
			}
		})

		It("rejects a non-numeric limit", func() {
			resp := env.do(http.MethodGet, "/api/dashboard/activity?limit=abc", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("diagnostics", func() {
		It("requires a session", func() {
			resp := env.do(http.MethodGet, "/api/admin/diagnostics", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("returns the bundle as JSON without secrets", func() {
			env.login()
			resp := env.do(http.MethodGet, "/api/admin/diagnostics?format=json", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body := decode[map[string]any](resp)
			Expect(body).To(HaveKey("system"))
			Expect(body).To(HaveKey("runtime"))

			cfg := body["config"].(map[string]any)
			Expect(cfg).To(HaveKeyWithValue("storage", "memory"))
			Expect(cfg).To(HaveKeyWithValue("session_secret_set", true))
			Expect(cfg).NotTo(HaveKey("admin_password"))

			records := body["records"].(map[string]any)
			seeded := seed.DefaultFixtures()
			Expect(records["stats"]).To(HaveKeyWithValue("total_orders", BeNumerically("==", len(seeded.Orders))))
			Expect(records["stats"]).To(HaveKeyWithValue("total_packages", BeNumerically("==", len(seeded.Packages))))
		})

		It("streams a tar.gz archive", func() {
			env.login()
			resp := env.do(http.MethodGet, "/api/admin/diagnostics", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/gzip"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("hostpanel-diagnostics-"))

			gzr, err := gzip.NewReader(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			tr := tar.NewReader(gzr)
			var names []string
			for {
				header, err := tr.Next()
				if err == io.EOF {
					break
				}
				Expect(err).NotTo(HaveOccurred())
				names = append(names, header.Name)
			}
			Expect(names).To(ContainElements("diagnostics/bundle.json", "diagnostics/records.json"))
		})
	})
})

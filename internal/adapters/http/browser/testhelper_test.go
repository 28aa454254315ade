package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	web "innercircle/internal/adapters/http"
	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/adapters/http/perf"
	"innercircle/internal/adapters/storage"
	accountStore "innercircle/internal/adapters/storage/account"
	auditStore "innercircle/internal/adapters/storage/audit"
	invitationStore "innercircle/internal/adapters/storage/invitation"
	leadStore "innercircle/internal/adapters/storage/lead"
	outboxStore "innercircle/internal/adapters/storage/outbox"
	recipeStore "innercircle/internal/adapters/storage/recipe"
	"innercircle/internal/adapters/storage/storagetest"
	userStore "innercircle/internal/adapters/storage/user"
	"innercircle/internal/application/orchestrators"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "TestPass123!long"
)

var browserTestKey = []byte("innercircle-browser-test-key-32b")

// testApp is a running server plus a headless Chromium pointed at it.
type testApp struct {
	BaseURL   string
	Stores    *web.Stores
	Collector *perf.Collector
	Browser   playwright.Browser
}

// newTestApp serves the full middleware stack over a migrated in-memory
// database. Without Playwright or Chromium the test is skipped.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}

	collector := perf.NewCollector(1000)
	db := storage.NewTimedDB(storagetest.OpenSQLite(t), collector, time.Second)
	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(db),
		LeadStore:       leadStore.NewSQLiteStore(db),
		RecipeStore:     recipeStore.NewSQLiteStore(db),
		InvitationStore: invitationStore.NewSQLiteStore(db),
		UserStore:       userStore.NewSQLiteStore(db),
		AuditStore:      auditStore.NewSQLiteStore(db),
		OutboxStore:     outboxStore.NewSQLiteStore(db),
	}
	_, err := orchestrators.ExecuteSeedAdmin(context.Background(),
		orchestrators.SeedAdminInput{Email: adminEmail, Password: adminPassword},
		orchestrators.SeedAdminDeps{AccountStore: stores.AccountStore, GenerateID: uuid.NewString, Now: time.Now})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	// The CSRF origin list is read when the mux is built, so the port must be known first.
	srv := httptest.NewUnstartedServer(nil)
	host := srv.Listener.Addr().String()
	_, port, _ := strings.Cut(host, ":")
	prevOrigins, prevRate := middleware.ExtraTrustedOrigins, web.RateLimitPerSecond
	middleware.ExtraTrustedOrigins = append([]string{host, "localhost:" + port}, prevOrigins...)
	web.RateLimitPerSecond = 1000
	t.Cleanup(func() {
		middleware.ExtraTrustedOrigins, web.RateLimitPerSecond = prevOrigins, prevRate
	})

	baseURL := "http://" + host
	srv.Config.Handler = web.NewMux(stores, web.Settings{
		BaseURL:         baseURL,
		CountdownTarget: time.Now().Add(72 * time.Hour),
		CSRFKey:         browserTestKey,
		SessionKey:      browserTestKey,
	}, collector)
	srv.Start()
	t.Cleanup(srv.Close)

	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	t.Cleanup(func() { pw.Stop() })
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Skipf("chromium unavailable: %v", err)
	}
	t.Cleanup(func() { browser.Close() })

	return &testApp{BaseURL: baseURL, Stores: stores, Collector: collector, Browser: browser}
}

// healthy reports whether /healthz answers 200.
func (a *testApp) healthy() bool {
	resp, err := http.Get(a.BaseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// newPage opens a tab that is closed at test end.
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// goTo navigates and fails the test on a non-2xx response.
func (a *testApp) goTo(t *testing.T, page playwright.Page, path string) {
	t.Helper()
	resp, err := page.Goto(a.BaseURL + path)
	if err != nil {
		t.Fatalf("goto %s: %v", path, err)
	}
	if resp != nil && resp.Status() >= 400 {
		t.Fatalf("%s returned %d", path, resp.Status())
	}
}

func fill(t *testing.T, page playwright.Page, selector, value string) {
	t.Helper()
	if err := page.Locator(selector).Fill(value); err != nil {
		t.Fatalf("fill %s: %v", selector, err)
	}
}

func click(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).Click(); err != nil {
		t.Fatalf("click %s: %v", selector, err)
	}
}

func waitForURL(t *testing.T, page playwright.Page, url string) {
	t.Helper()
	if err := page.WaitForURL(url, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("did not reach %s: %v", url, err)
	}
}

// loginAdmin logs in through the ?admin=true page.
func (a *testApp) loginAdmin(t *testing.T, page playwright.Page) {
	t.Helper()
	a.goTo(t, page, "/?admin=true")
	fill(t, page, "#login-form input[name=email]", adminEmail)
	fill(t, page, "#login-form input[name=password]", adminPassword)
	click(t, page, "#login-form button[type=submit]")
	waitForURL(t, page, a.BaseURL+"/admin")
}

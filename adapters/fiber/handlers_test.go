package fiber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/linkage"
	"github.com/lborres/linkage/adapters/memory"
	"github.com/lborres/linkage/core"
	"github.com/lborres/linkage/internal/logging"
	"github.com/lborres/linkage/pkg/cache"
	"github.com/lborres/linkage/services"
)

const testHost = "app.example"

// stubBundler returns canned output or a canned error
type stubBundler struct {
	output string
	err    error
}

func (s *stubBundler) Bundle(context.Context, string, services.Platform) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

type testEnv struct {
	app     *fiber.App
	linkage *linkage.Linkage
	stores  *memory.Provider
	root    string
}

type testOption func(*linkage.Config)

func newTestEnv(t *testing.T, opts ...testOption) *testEnv {
	t.Helper()

	root := t.TempDir()
	app := fiber.New()
	stores := memory.NewProvider()

	cfg := linkage.Config{
		Secret:  strings.Repeat("k", 32),
		Stores:  stores,
		HTTP:    New(app),
		Bundler: &stubBundler{output: `import { css } from "styled-system/css";`},
		Root:    root,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	l, err := linkage.New(cfg)
	if err != nil {
		t.Fatalf("linkage.New failed: %v", err)
	}

	return &testEnv{app: app, linkage: l, stores: stores, root: root}
}

func (e *testEnv) store() core.Store {
	return e.stores.ForHost(testHost)
}

func (e *testEnv) do(t *testing.T, method, target string, cookies ...string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(method, "http://"+testHost+target, nil)
	if len(cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(cookies, "; "))
	}

	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, string(body)
}

func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Requirement: GET / with a cookie for a stored user renders their dashboard
// without redirecting.
func TestRenderPage_KnownUser(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	_ = env.store().PutUser(context.Background(), &core.User{ID: "abc123", Name: "Alice", Email: "alice@example.org"})

	// Act
	resp, body := env.do(t, "GET", "/", "id=abc123")

	// Assert
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Alice") {
		t.Errorf("expected body to contain Alice:\n%s", body)
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		t.Errorf("expected no redirect, got Location %q", loc)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("expected html, got %q", resp.Header.Get("Content-Type"))
	}
}

// Requirement: an unknown identifier gets a placeholder user persisted on first sight.
func TestRenderPage_LazyCreation(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, "GET", "/", "id=newcomer-42")

	if !strings.Contains(body, "User newcomer") {
		t.Errorf("expected placeholder name in body:\n%s", body)
	}
	user, err := env.store().GetUserByID(context.Background(), "newcomer-42")
	if err != nil {
		t.Fatalf("expected user to be persisted: %v", err)
	}
	if user.Email != "newcomer@example.com" {
		t.Errorf("unexpected placeholder email %q", user.Email)
	}
}

// Requirement: anonymous requests see the login page and set no cookie.
func TestRenderPage_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/some/deep/link")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Login") {
		t.Errorf("expected login page:\n%s", body)
	}
	wantRedirect := "/auth/login?redirect=" + url.QueryEscape("http://"+testHost+"/some/deep/link")
	if !strings.Contains(body, strings.ReplaceAll(wantRedirect, "&", "&amp;")) {
		t.Errorf("expected login link %q in body:\n%s", wantRedirect, body)
	}
	if cookies := resp.Header.Values("Set-Cookie"); len(cookies) != 0 {
		t.Errorf("expected no cookies, got %v", cookies)
	}
}

// Requirement: ?token= logs the user in for this response and sets the
// identity cookie; the profile lookup fills in the display name.
func TestRenderPage_TokenLogin(t *testing.T) {
	profiles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-alice" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Alice Profile","email":"alice@profile.example"}`))
	}))
	t.Cleanup(profiles.Close)

	tests := []struct {
		name     string
		token    string
		wantName string
	}{
		{"profile found", "tok-alice", "Alice Profile"},
		{"profile lookup fails", "tok-bobby-xyz", "User tok-bobb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(c *linkage.Config) { c.ProfileURL = profiles.URL })

			resp, body := env.do(t, "GET", "/?token="+tt.token)

			if !strings.Contains(body, tt.wantName) {
				t.Errorf("expected %q in body:\n%s", tt.wantName, body)
			}
			cookie := strings.Join(resp.Header.Values("Set-Cookie"), "\n")
			if !strings.Contains(cookie, "id="+tt.token+";") {
				t.Errorf("expected identity cookie for %q, got %q", tt.token, cookie)
			}
			if _, err := env.store().GetUserByID(context.Background(), tt.token); err != nil {
				t.Errorf("expected user to be stored: %v", err)
			}
		})
	}
}

// Requirement: a ?token= that can't round-trip as a cookie value is refused.
// No cookie is set, nothing is stored and the login page is shown.
func TestRenderPage_TokenWithCookieSyntax(t *testing.T) {
	tokens := []string{
		"victim; Domain=evil.example; Path=/api",
		"two words",
		"a,b",
		`quoted"token`,
	}

	for _, token := range tokens {
		t.Run(token, func(t *testing.T) {
			env := newTestEnv(t)

			resp, body := env.do(t, "GET", "/?token="+url.QueryEscape(token))

			if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Login") {
				t.Errorf("expected the login page, got %d:\n%s", resp.StatusCode, body)
			}
			if cookies := resp.Header.Values("Set-Cookie"); len(cookies) != 0 {
				t.Errorf("expected no cookies, got %v", cookies)
			}
			if _, err := env.store().GetUserByID(context.Background(), token); err != core.ErrUserNotFound {
				t.Errorf("expected no user stored for %q, got %v", token, err)
			}
		})
	}
}

// Requirement: logout always redirects home and clears the cookie, even
// when repeated.
func TestLogout_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	_ = env.store().PutUser(context.Background(), &core.User{ID: "abc123", Name: "Alice"})

	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, "GET", "/auth/logout", "id=abc123")

		if resp.StatusCode != http.StatusFound {
			t.Fatalf("call %d: expected 302, got %d", i+1, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("call %d: expected Location /, got %q", i+1, loc)
		}
		cookie := resp.Header.Get("Set-Cookie")
		if !strings.HasPrefix(cookie, "id=;") || !strings.Contains(cookie, "expires=Thu, 01 Jan 1970 00:00:00 GMT") {
			t.Errorf("call %d: expected cleared cookie, got %q", i+1, cookie)
		}
	}

	if _, err := env.store().GetUserByID(context.Background(), "abc123"); err != core.ErrUserNotFound {
		t.Errorf("expected user to be deleted, got %v", err)
	}
}

// Requirement: logging out drops the user's connected accounts with the
// user record.
func TestLogout_DropsConnectedAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	store := env.store()
	_ = store.PutUser(ctx, &core.User{ID: "abc123", Name: "Alice"})
	_ = store.PutAccount(ctx, &core.Account{ID: "acc-1", UserID: "abc123", ProviderID: "zoho", AccountID: "zuid-1"})

	env.do(t, "GET", "/auth/logout", "id=abc123")

	accounts, err := store.GetAccountsByUser(ctx, "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected no accounts after logout, got %d", len(accounts))
	}
}

// Requirement: the callback without a code answers 400 "OAuth failed".
func TestZohoCallback_MissingCode(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/zoho/callback", "id=abc123")

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if body != "OAuth failed" {
		t.Errorf("expected body %q, got %q", "OAuth failed", body)
	}
}

func newZohoFake(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"Bearer"}`))
	})
	mux.HandleFunc("/oauth/user/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ZUID":991,"Email":"alice@zoho.example"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func withZoho(accountsURL string) testOption {
	return func(c *linkage.Config) {
		c.Zoho = services.ZohoConfig{
			ClientID:     "client-1",
			ClientSecret: "secret-1",
			AccountsURL:  accountsURL,
			Scopes:       []string{"ZohoMail.accounts.READ"},
			Timeout:      time.Second,
		}
	}
}

// connect starts the flow and returns the state sent to Zoho and the cookie pair holding its hash
func connect(t *testing.T, env *testEnv) (string, string) {
	t.Helper()

	resp, _ := env.do(t, "GET", "/api/zoho/connect")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 from connect, got %d", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location: %v", err)
	}
	if got := loc.Query().Get("redirect_uri"); got != "http://"+testHost+"/api/zoho/callback" {
		t.Errorf("unexpected redirect_uri %q", got)
	}
	if loc.Query().Get("access_type") != "offline" || loc.Query().Get("client_id") != "client-1" {
		t.Errorf("unexpected authorize query %q", loc.RawQuery)
	}

	hash, ok := core.DecodeCookie(resp.Header.Get("Set-Cookie"), stateCookie)
	if !ok {
		t.Fatalf("expected %s cookie, got %q", stateCookie, resp.Header.Get("Set-Cookie"))
	}
	return loc.Query().Get("state"), stateCookie + "=" + hash
}

// Requirement: a successful callback stores the account for the current
// user and the accounts endpoint lists it.
func TestZohoFlow(t *testing.T) {
	// Arrange
	zoho := newZohoFake(t)
	env := newTestEnv(t, withZoho(zoho.URL))
	state, stateCookiePair := connect(t, env)

	// Act
	resp, _ := env.do(t, "GET", "/api/zoho/callback?code=good-code&state="+url.QueryEscape(state), "id=abc123", stateCookiePair)

	// Assert
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/?zoho_connected=1" {
		t.Errorf("expected redirect to /?zoho_connected=1, got %q", loc)
	}

	_, body := env.do(t, "GET", "/api/zoho/accounts", "id=abc123")
	var accounts []core.AccountSummary
	if err := json.Unmarshal([]byte(body), &accounts); err != nil {
		t.Fatalf("invalid JSON %q: %v", body, err)
	}
	if len(accounts) != 1 || accounts[0].Email != "alice@zoho.example" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
	if strings.Contains(body, "at-1") || strings.Contains(body, "rt-1") {
		t.Error("tokens must never be listed")
	}

	_, page := env.do(t, "GET", "/?zoho_connected=1", "id=abc123")
	if !strings.Contains(page, "alice@zoho.example") || !strings.Contains(page, "Zoho account connected") {
		t.Errorf("expected dashboard to show the account:\n%s", page)
	}

	del, _ := env.do(t, "DELETE", "/api/zoho/accounts/"+accounts[0].ID, "id=abc123")
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 on disconnect, got %d", del.StatusCode)
	}
}

func TestZohoCallback_Failures(t *testing.T) {
	zoho := newZohoFake(t)

	tests := []struct {
		name    string
		query   func(state string) string
		cookies func(statePair string) []string
	}{
		{
			name:    "anonymous",
			query:   func(s string) string { return "?code=good-code&state=" + url.QueryEscape(s) },
			cookies: func(p string) []string { return []string{p} },
		},
		{
			name:    "state mismatch",
			query:   func(string) string { return "?code=good-code&state=forged" },
			cookies: func(p string) []string { return []string{"id=abc123", p} },
		},
		{
			name:    "missing state cookie",
			query:   func(s string) string { return "?code=good-code&state=" + url.QueryEscape(s) },
			cookies: func(string) []string { return []string{"id=abc123"} },
		},
		{
			name:    "exchange rejected",
			query:   func(s string) string { return "?code=bad-code&state=" + url.QueryEscape(s) },
			cookies: func(p string) []string { return []string{"id=abc123", p} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, withZoho(zoho.URL))
			state, pair := connect(t, env)

			resp, body := env.do(t, "GET", "/api/zoho/callback"+tt.query(state), tt.cookies(pair)...)

			if resp.StatusCode != http.StatusBadRequest || body != "OAuth failed" {
				t.Errorf("expected 400 OAuth failed, got %d %q", resp.StatusCode, body)
			}
			accounts, _ := env.store().GetAccountsByUser(context.Background(), "abc123")
			if len(accounts) != 0 {
				t.Errorf("expected no stored accounts, got %d", len(accounts))
			}
		})
	}
}

func TestZohoConnect_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "GET", "/api/zoho/connect")

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestZohoAccounts_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/zoho/accounts")

	if resp.StatusCode != http.StatusOK || strings.TrimSpace(body) != "[]" {
		t.Errorf("expected 200 [], got %d %q", resp.StatusCode, body)
	}
}

// Requirement: asset routes serve built files, fall back as documented and
// mark responses no-cache.
func TestAssets(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		target      string
		wantStatus  int
		wantBody    string
		wantType    string
		wantNoCache bool
	}{
		{
			name:       "styles not built",
			target:     "/styles.css",
			wantStatus: http.StatusOK,
			wantBody:   "/* CSS not built */",
			wantType:   "text/css",
		},
		{
			name:        "styles built",
			files:       map[string]string{"dist/styles.css": "body{}"},
			target:      "/styles.css",
			wantStatus:  http.StatusOK,
			wantBody:    "body{}",
			wantType:    "text/css",
			wantNoCache: true,
		},
		{
			name:        "client prebuilt",
			files:       map[string]string{"dist/client.js": "console.log(1)"},
			target:      "/client.js",
			wantStatus:  http.StatusOK,
			wantBody:    "console.log(1)",
			wantType:    "application/javascript",
			wantNoCache: true,
		},
		{
			name:        "client built on demand",
			target:      "/client.js",
			wantStatus:  http.StatusOK,
			wantBody:    `import { css } from "/styled-system/css";`,
			wantType:    "application/javascript; charset=utf-8",
			wantNoCache: true,
		},
		{
			name:        "styled-system file",
			files:       map[string]string{"styled-system/css/index.mjs": "export const css = 1"},
			target:      "/styled-system/css/index.mjs",
			wantStatus:  http.StatusOK,
			wantBody:    "export const css = 1",
			wantType:    "application/javascript",
			wantNoCache: true,
		},
		{
			name:       "styled-system missing",
			target:     "/styled-system/css/missing.mjs",
			wantStatus: http.StatusNotFound,
			wantBody:   "File not found",
		},
		{
			name:        "source module",
			files:       map[string]string{"src/app.tsx": "export const App = 1"},
			target:      "/src/app.tsx",
			wantStatus:  http.StatusOK,
			wantBody:    `import { css } from "/styled-system/css";`,
			wantType:    "application/javascript; charset=utf-8",
			wantNoCache: true,
		},
		{
			name:       "source module missing",
			target:     "/src/missing.tsx",
			wantStatus: http.StatusNotFound,
			wantBody:   "File not found",
		},
		{
			name:       "source module wrong extension",
			files:      map[string]string{"src/data.json": "{}"},
			target:     "/src/data.json",
			wantStatus: http.StatusNotFound,
			wantBody:   "File not found",
		},
		{
			name:       "health",
			target:     "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			for rel, content := range tt.files {
				env.writeFile(t, rel, content)
			}

			resp, body := env.do(t, "GET", tt.target)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%q)", tt.wantStatus, resp.StatusCode, body)
			}
			if body != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
			if tt.wantType != "" && resp.Header.Get("Content-Type") != tt.wantType {
				t.Errorf("expected content type %q, got %q", tt.wantType, resp.Header.Get("Content-Type"))
			}
			if tt.wantNoCache && resp.Header.Get("Cache-Control") != "no-cache" {
				t.Errorf("expected cache-control no-cache, got %q", resp.Header.Get("Cache-Control"))
			}
		})
	}
}

// Requirement: asset paths can't climb out of the asset root.
func TestReadAsset_ClampsToRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "app")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "secret.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := &Adapter{linkage: &linkage.Linkage{Root: root}}

	for _, rel := range []string{"../secret.txt", "styled-system/../../secret.txt", "/../../secret.txt"} {
		if data, err := a.readAsset(rel); err == nil {
			t.Errorf("readAsset(%q) escaped the root: %q", rel, data)
		}
	}
}

// Requirement: bundle failures answer 500 text/plain, with diagnostics only
// outside production.
func TestSourceModule_BundleError(t *testing.T) {
	bundleErr := &services.BundleError{
		Entry:    "src/broken.tsx",
		Messages: []string{"src/broken.tsx:3:7: ERROR: Expected \";\""},
	}

	for _, production := range []bool{false, true} {
		env := newTestEnv(t, func(c *linkage.Config) {
			c.Bundler = &stubBundler{err: bundleErr}
			c.Production = production
		})
		env.writeFile(t, "src/broken.tsx", "const =")

		resp, body := env.do(t, "GET", "/src/broken.tsx")

		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("production=%v: expected 500, got %d", production, resp.StatusCode)
		}
		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
			t.Errorf("production=%v: expected text/plain, got %q", production, resp.Header.Get("Content-Type"))
		}
		if !strings.Contains(body, "Error bundling /src/broken.tsx") {
			t.Errorf("production=%v: unexpected body %q", production, body)
		}
		if leaked := strings.Contains(body, `Expected ";"`); leaked == production {
			t.Errorf("production=%v: diagnostics present=%v in %q", production, leaked, body)
		}
	}
}

// Requirement: identities are scoped to the request host.
func TestHostIsolation(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, "GET", "/", "id=shared-id")

	if _, err := env.stores.ForHost(testHost).GetUserByID(context.Background(), "shared-id"); err != nil {
		t.Fatalf("expected user on %s: %v", testHost, err)
	}
	if _, err := env.stores.ForHost("other.example").GetUserByID(context.Background(), "shared-id"); err != core.ErrUserNotFound {
		t.Errorf("expected other host to be untouched, got %v", err)
	}
	if env.linkage.Registry.Len() != 1 {
		t.Errorf("expected one registered host, got %v", env.linkage.Registry.Hosts())
	}
}

// recordingLogger keeps the level and message of every entry
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+msg)
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...any)  { l.log("INFO", msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any)  { l.log("WARN", msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) { l.log("ERROR", msg) }
func (l *recordingLogger) With(...any) logging.Logger                     { return l }

func (l *recordingLogger) has(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(string) (string, error) {
	return "", errors.New("bad signature")
}

// Requirement: a rejected identity cookie is logged as a warning, not as a
// store failure, and the page renders anonymously.
func TestRenderPage_RejectedCookieLoggedAtWarn(t *testing.T) {
	logger := &recordingLogger{}
	env := newTestEnv(t, func(c *linkage.Config) {
		c.Logger = logger
		c.Verifier = rejectingVerifier{}
	})

	resp, body := env.do(t, "GET", "/", "id=forged")

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Login") {
		t.Fatalf("expected the login page, got %d:\n%s", resp.StatusCode, body)
	}
	if !logger.has("WARN identity cookie rejected") {
		t.Errorf("expected a warning, got %v", logger.entries)
	}
	if logger.has("ERROR") {
		t.Errorf("expected no error entries, got %v", logger.entries)
	}
	if _, err := env.store().GetUserByID(context.Background(), "forged"); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("expected no user to be created, got %v", err)
	}
}

func TestDiagnostics(t *testing.T) {
	withDiagnostics := func(c *linkage.Config) {
		c.Plugins = []core.Endpoint{services.DiagnosticsEndpoint()}
		c.Production = true
	}
	env := newTestEnv(t, withDiagnostics)
	env.writeFile(t, "src/app.tsx", "export const App = 1")

	env.do(t, "GET", "/", "id=abc123")
	env.do(t, "GET", "/src/app.tsx")
	env.do(t, "GET", "/src/app.tsx")

	resp, body := env.do(t, "GET", "/debug/linkage")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		HostCount      int         `json:"hostCount"`
		Hosts          []string    `json:"hosts"`
		TransformCache cache.Stats `json:"transformCache"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", body, err)
	}
	if got.HostCount != 1 || len(got.Hosts) != 1 || got.Hosts[0] != testHost {
		t.Errorf("unexpected hosts %+v", got)
	}
	if got.TransformCache.Hits != 1 || got.TransformCache.Sets != 1 {
		t.Errorf("unexpected cache stats %+v", got.TransformCache)
	}
}

// Requirement: without the plugin the path is just another page.
func TestDiagnostics_NotRoutedByDefault(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, "GET", "/debug/linkage")

	if strings.Contains(body, "hostCount") || !strings.Contains(body, "Login") {
		t.Errorf("expected the login page, got:\n%s", body)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{core.ErrInvalidIdentity, http.StatusUnauthorized},
		{core.ErrAccountNotFound, http.StatusNotFound},
		{services.ErrOAuthExchange, http.StatusBadRequest},
		{core.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{&services.BundleError{Entry: "x"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapErrorToStatus(tt.err); got != tt.want {
			t.Errorf("mapErrorToStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

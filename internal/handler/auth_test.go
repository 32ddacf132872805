package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func loginBody(password string) string {
	return url.Values{"password": {password}}.Encode()
}

func TestLogin_WrongPasswordTwice(t *testing.T) {
	env := newTestEnv(t, testPassword)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/login", loginBody("guess"))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("attempt %d: status = %d, want 303", i+1, rec.Code)
		}
		loc := rec.Header().Get("Location")
		if !strings.HasPrefix(loc, "/login?error=") {
			t.Errorf("attempt %d: Location = %q", i+1, loc)
		}
		if cookies := rec.Result().Cookies(); len(cookies) != 0 {
			t.Errorf("attempt %d: unexpected cookies %v", i+1, cookies)
		}
	}

	snap := env.metrics.Snapshot()
	if snap.LoginFailures != 2 || snap.LoginSuccesses != 0 {
		t.Errorf("login metrics = %d failures / %d successes", snap.LoginFailures, snap.LoginSuccesses)
	}
}

func TestLogin_SuccessOpensDashboard(t *testing.T) {
	env := newTestEnv(t, testPassword)

	rec := env.do(t, http.MethodPost, "/login", loginBody(testPassword))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == env.cookies.Name() {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected a session cookie")
	}
	if !session.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	rec = env.do(t, http.MethodGet, "/dashboard", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Subscribed (0)") {
		t.Error("dashboard should list the subscribed addresses")
	}

	// A live session skips the login form.
	rec = env.do(t, http.MethodGet, "/login", "", session)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("login form with session: status %d, Location %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLogin_NotConfigured(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/login", loginBody(""))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	want := "/login?error=" + url.QueryEscape(loginErrNotConfigured)
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestLoginForm_ErrorWhitelist(t *testing.T) {
	env := newTestEnv(t, testPassword)

	rec := env.do(t, http.MethodGet, "/login?error="+url.QueryEscape(loginErrInvalid), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), loginErrInvalid) {
		t.Error("expected the invalid-password message")
	}

	rec = env.do(t, http.MethodGet, "/login?error="+url.QueryEscape("<b>owned</b>"), "")
	if strings.Contains(rec.Body.String(), "owned") {
		t.Error("arbitrary error text must not be rendered")
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t, testPassword)

	rec := env.do(t, http.MethodPost, "/logout", "", env.sessionCookie(t))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("status %d, Location %q", rec.Code, rec.Header().Get("Location"))
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == env.cookies.Name() && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be expired")
	}
}

func TestLoginRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	LoginRateLimited(rec, httptest.NewRequest(http.MethodPost, "/login", nil), time.Minute)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?error="+url.QueryEscape(loginErrRateLimited) {
		t.Errorf("Location = %q", loc)
	}
}

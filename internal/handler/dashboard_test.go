package handler

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/quotecast/quotecast/internal/model"
)

func TestDashboard_RequiresSession(t *testing.T) {
	env := newTestEnv(t, testPassword)

	for _, path := range []string{"/dashboard", "/dashboard/add"} {
		method := http.MethodGet
		if path != "/dashboard" {
			method = http.MethodPost
		}
		rec := env.do(t, method, path, "")
		if rec.Code != http.StatusFound {
			t.Errorf("%s: status = %d, want 302", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s: Location = %q, want /login", path, loc)
		}
	}

	rec := env.do(t, http.MethodGet, "/dashboard", "", &http.Cookie{Name: env.cookies.Name(), Value: "forged"})
	if rec.Code != http.StatusFound {
		t.Fatalf("forged cookie: status = %d, want 302", rec.Code)
	}
}

func TestDashboard_ListMutations(t *testing.T) {
	env := newTestEnv(t, testPassword)
	session := env.sessionCookie(t)
	ctx := context.Background()

	post := func(path string, form url.Values) {
		t.Helper()
		rec := env.do(t, http.MethodPost, path, form.Encode(), session)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
			t.Fatalf("%s: status %d, Location %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
	load := func(list model.ListName) []string {
		t.Helper()
		lines, err := env.lists.Load(ctx, list)
		if err != nil {
			t.Fatal(err)
		}
		return lines
	}

	post("/dashboard/add", url.Values{"list": {"subscribed"}, "email": {"a@example.com"}})
	post("/dashboard/bulkadd", url.Values{"list": {"Subscribed"}, "emails": {"b@example.com, bogus\nc@example.com\na@example.com"}})
	if got, want := load(model.ListSubscribed), []string{"a@example.com", "b@example.com", "c@example.com"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("subscribed = %v, want %v", got, want)
	}

	post("/dashboard/delete", url.Values{"list": {"subscribed"}, "email": {"b@example.com"}})
	post("/dashboard/bulkdelete", url.Values{"list": {"subscribed"}, "emails": {"c@example.com,missing@example.com"}})
	if got, want := load(model.ListSubscribed), []string{"a@example.com"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("subscribed after deletes = %v, want %v", got, want)
	}

	// Unknown lists are ignored and still redirect.
	post("/dashboard/add", url.Values{"list": {"vip"}, "email": {"x@example.com"}})

	rec := env.do(t, http.MethodGet, "/dashboard", "", session)
	if !strings.Contains(rec.Body.String(), "a@example.com") {
		t.Error("dashboard should render list entries")
	}
}

func TestDashboard_ToggleSendToEmail(t *testing.T) {
	env := newTestEnv(t, testPassword)
	session := env.sessionCookie(t)

	rec := env.do(t, http.MethodPost, "/dashboard/toggle-send-to-email", "", session)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/settings", "")
	if got := decodeMap(t, rec)["showSendToEmail"]; got != false {
		t.Errorf("showSendToEmail after toggle = %v, want false", got)
	}

	rec = env.do(t, http.MethodPost, "/api/send-to-email", `{"email":"reader@example.com"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("send-to-email while hidden: status = %d, want 403", rec.Code)
	}
}

func TestDashboard_RunNow(t *testing.T) {
	env := newTestEnv(t, testPassword)
	session := env.sessionCookie(t)

	if _, err := env.lists.Add(context.Background(), model.ListSubscribed, "daily@example.com"); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/dashboard/run-now", "", session)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if sent := env.sender.recipients(); len(sent) == 1 && sent[0] == "daily@example.com" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run-now did not deliver, sent = %v", env.sender.recipients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDashboard_WaitDrainsRuns(t *testing.T) {
	env := newTestEnv(t, testPassword)
	session := env.sessionCookie(t)

	for _, addr := range []string{"one@example.com", "two@example.com"} {
		if _, err := env.lists.Add(context.Background(), model.ListSubscribed, addr); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(t, http.MethodPost, "/dashboard/run-now", "", session)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := env.dashboard.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if sent := env.sender.recipients(); len(sent) != 2 {
		t.Errorf("recipients after Wait = %v, want both addresses", sent)
	}
}

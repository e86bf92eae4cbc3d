package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	stdlog.SetOutput(&buf)
	flags := stdlog.Flags()
	stdlog.SetFlags(0)
	t.Cleanup(func() {
		stdlog.SetOutput(os.Stderr)
		stdlog.SetFlags(flags)
	})
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("not a JSON line: %q", lines[len(lines)-1])
	}
	return m
}

func TestBackgroundEntry(t *testing.T) {
	buf := capture(t)
	applog.Error(nil, "catalog.refresh.fail", errors.New("upstream down"), map[string]any{"generation": 4})

	m := lastEntry(t, buf)
	if m["level"] != "error" || m["action"] != "catalog.refresh.fail" || m["err"] != "upstream down" {
		t.Fatalf("entry: %v", m)
	}
	if _, has := m["path"]; has {
		t.Fatal("background entries carry no request fields")
	}
}

func TestRequestEntry(t *testing.T) {
	buf := capture(t)
	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/admin/orders", func(c *fiber.Ctx) error {
		c.Locals("admin", domain.AdminSession{SessionID: "s-1", Authenticated: true})
		applog.Audit(c, "admin.orders.view", nil)
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "s-1"})
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}

	m := lastEntry(t, buf)
	if m["level"] != "audit" || m["path"] != "/admin/orders" || m["sid"] != "s-1" || m["admin"] != true {
		t.Fatalf("entry: %v", m)
	}
	if rid, _ := m["req_id"].(string); rid == "" {
		t.Fatal("request id missing")
	}
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kioskpos/internal/domain"
)

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)

	req := httptest.NewRequest("POST", "/cart", strings.NewReader("productId=p2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	expectStatus(t, b.do(req), http.StatusForbidden)
	if c := b.cart(); len(c.Items) != 0 {
		t.Fatal("cart changed without a csrf token")
	}
}

func TestLoginIsThrottled(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)

	bad := url.Values{"username": {"admin"}, "password": {"nope"}}
	for i := 0; i < 5; i++ {
		expectStatus(t, b.post("/login", bad), http.StatusUnauthorized)
	}
	resp := b.post("/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	expectStatus(t, resp, http.StatusTooManyRequests)
	if body := readBody(t, resp); !strings.Contains(body, "Too many attempts") {
		t.Fatalf("body=%s", body)
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	app, _ := newApp(t)
	big := strings.Repeat("a", (1<<20)+1024)
	req := httptest.NewRequest("POST", "/cart", strings.NewReader("productId="+big))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		// fasthttp may close the connection before a response is written.
		return
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}

func TestSearchRejectsMarkup(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)
	expectStatus(t, b.post("/filter/search", url.Values{"q": {"<script>alert(1)</script>"}}), http.StatusBadRequest)
}

func TestProductNamesAreEscaped(t *testing.T) {
	app, up := newApp(t)
	up.mu.Lock()
	up.products = append(up.products, domain.Product{ID: "p9", Name: "<b>bold</b>", Price: 100, MainCategory: "cat_1"})
	up.mu.Unlock()

	b := newBrowser(t, app)
	resp := b.get("/product/p9")
	expectStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)
	if strings.Contains(body, "<b>bold</b>") || !strings.Contains(body, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Fatalf("product name not escaped; body=%s", body)
	}
}

func TestCustomersAPI(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)

	resp := b.get("/api/v1/customers")
	expectStatus(t, resp, http.StatusOK)
	var out struct {
		Customers []string `json:"customers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Customers) != 1 || out.Customers[0] != "[77] Kim Supply" {
		t.Fatalf("customers=%v", out.Customers)
	}

	for i := 0; i < 14; i++ {
		b.get("/api/v1/customers")
	}
	resp = b.get("/api/v1/customers")
	expectStatus(t, resp, http.StatusTooManyRequests)
}

func TestUnknownOrderIsNotFound(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)
	expectStatus(t, b.get("/order/nope"), http.StatusNotFound)
	expectStatus(t, b.get("/order/..%2f..%2fetc"), http.StatusNotFound)
}

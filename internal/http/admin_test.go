package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/domain"
)

func login(t *testing.T, app *fiber.App) *browser {
	t.Helper()
	b := newBrowser(t, app)
	expectRedirect(t, b.post("/login", url.Values{"username": {"admin"}, "password": {"secret"}}), "/admin/orders")
	return b
}

func TestAdminRequiresLogin(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)

	for _, path := range []string{"/admin", "/admin/orders", "/admin/categories", "/admin/products"} {
		expectRedirect(t, b.get(path), "/login")
	}
	expectRedirect(t, b.post("/admin/sync", nil), "/login")
}

func TestLogin(t *testing.T) {
	app, _ := newApp(t)
	b := newBrowser(t, app)

	resp := b.post("/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	expectStatus(t, resp, http.StatusUnauthorized)
	if body := readBody(t, resp); !strings.Contains(body, "Invalid username or password") {
		t.Fatalf("body=%s", body)
	}
	expectRedirect(t, b.get("/admin/orders"), "/login")

	expectRedirect(t, b.post("/login", url.Values{"username": {"admin"}, "password": {"secret"}}), "/admin/orders")
	resp = b.get("/admin/orders")
	expectStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)
	// Cancelled orders are listed but not counted as revenue.
	if !strings.Contains(body, "Revenue ₩7,000") || !strings.Contains(body, "3 orders") {
		t.Fatalf("orders page body=%s", body)
	}
}

func TestOrdersFilter(t *testing.T) {
	app, _ := newApp(t)
	b := login(t, app)

	body := readBody(t, b.get("/admin/orders?status=pending"))
	if !strings.Contains(body, "Revenue ₩5,000") || !strings.Contains(body, "1 orders") {
		t.Fatalf("status filter body=%s", body)
	}

	body = readBody(t, b.get("/admin/orders?customer=lee&from=2026-03-02&to=2026-03-02"))
	if !strings.Contains(body, "Revenue ₩0") || !strings.Contains(body, "1 orders") {
		t.Fatalf("date filter body=%s", body)
	}

	expectStatus(t, b.get("/admin/orders?from=March"), http.StatusBadRequest)
}

func TestUpdateOrderStatus(t *testing.T) {
	app, up := newApp(t)
	b := login(t, app)

	expectRedirect(t, b.post("/admin/orders/o-9/status", url.Values{"status": {"completed"}}), "/admin/orders")
	if got := up.statusUpdates["o-9"]; got != domain.StatusCompleted {
		t.Fatalf("upstream status = %q", got)
	}
	expectStatus(t, b.post("/admin/orders/o-9/status", url.Values{"status": {"shipped"}}), http.StatusBadRequest)
}

func TestCreateCategory(t *testing.T) {
	app, up := newApp(t)
	b := login(t, app)

	expectRedirect(t, b.post("/admin/categories", url.Values{"name": {"Brass"}, "level": {"sub"}, "parentId": {"cat_2"}}), "/admin/categories")
	if len(up.createdCats) != 1 {
		t.Fatalf("created %d categories", len(up.createdCats))
	}
	c := up.createdCats[0]
	if !strings.HasPrefix(c.ID, "sub_") || c.ParentID != "cat_2" || c.Level != domain.LevelSub {
		t.Fatalf("created category: %+v", c)
	}

	// A sub category hanging off another sub is rejected before the backend.
	resp := b.post("/admin/categories", url.Values{"name": {"Bad"}, "level": {"sub"}, "parentId": {"sub_1"}})
	expectStatus(t, resp, http.StatusBadRequest)
	if body := readBody(t, resp); !strings.Contains(body, "needs a main parent") {
		t.Fatalf("body=%s", body)
	}
	if len(up.createdCats) != 1 {
		t.Fatal("invalid category reached the backend")
	}

	// The tree is refetched after the write.
	if body := readBody(t, b.get("/admin/categories")); !strings.Contains(body, "Brass") {
		t.Fatalf("new category not listed; body=%s", body)
	}
}

func TestPreviewCombinationsKeepsPrices(t *testing.T) {
	app, _ := newApp(t)
	b := login(t, app)

	resp := b.postJSON("/admin/products/combinations", map[string]any{
		"productId": "p1",
		"groups": []map[string]string{
			{"name": "Size", "values": "S, M"},
			{"name": "Color", "values": "Red, Blue"},
		},
	})
	expectStatus(t, resp, http.StatusOK)
	var out struct {
		OptionGroups []domain.OptionGroup `json:"optionGroups"`
		Combinations []domain.Combination `json:"combinations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.OptionGroups) != 2 || len(out.Combinations) != 4 {
		t.Fatalf("groups=%+v combos=%+v", out.OptionGroups, out.Combinations)
	}
	prices := map[string]int{}
	for _, c := range out.Combinations {
		prices[c.Name] = c.Price
	}
	if prices["S / Blue"] != 200 || prices["M / Red"] != 500 || prices["M / Blue"] != 0 {
		t.Fatalf("prices=%v", prices)
	}

	resp = b.postJSON("/admin/products/combinations", map[string]any{"groups": []map[string]string{}})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestSaveProduct(t *testing.T) {
	app, up := newApp(t)
	b := login(t, app)

	form := url.Values{
		"name":         {"Union"},
		"price":        {"2,500"},
		"mainCategory": {"cat_2"},
		"hashtags":     {"brass, #fitting"},
		"images":       {"/uploads/a.png\n\n/uploads/b.png"},
		"groupName0":   {"Size"},
		"groupValues0": {"15A, 20A"},
		"price.20A":    {"300"},
		"erp.20A":      {"U-20"},
	}
	expectRedirect(t, b.post("/admin/products", form), "/admin/products")
	if len(up.savedProducts) != 1 {
		t.Fatalf("saved %d products", len(up.savedProducts))
	}
	p := up.savedProducts[0]
	if p.Price != 2500 || !p.IsComplexOptions || len(p.Combinations) != 2 || len(p.Images) != 2 {
		t.Fatalf("saved product: %+v", p)
	}
	if p.Combinations[1].Name != "20A" || p.Combinations[1].Price != 300 || p.Combinations[1].ErpCode != "U-20" {
		t.Fatalf("combination override lost: %+v", p.Combinations)
	}
	if len(p.Hashtags) != 2 || p.Hashtags[0] != "#brass" {
		t.Fatalf("hashtags=%v", p.Hashtags)
	}

	form.Set("price", "-1")
	expectStatus(t, b.post("/admin/products", form), http.StatusBadRequest)
	form.Set("price", "100")
	form.Del("mainCategory")
	expectStatus(t, b.post("/admin/products", form), http.StatusBadRequest)
	if len(up.savedProducts) != 1 {
		t.Fatal("invalid product reached the backend")
	}
}

func TestBulkDeleteAndSync(t *testing.T) {
	app, up := newApp(t)
	b := login(t, app)

	expectRedirect(t, b.post("/admin/products/bulk-delete", url.Values{"ids": {"p1", "p2", "p1", ""}}), "/admin/products")
	if len(up.bulkDeleted) != 1 || strings.Join(up.bulkDeleted[0], ",") != "p1,p2" {
		t.Fatalf("bulk delete ids=%v", up.bulkDeleted)
	}
	expectStatus(t, b.post("/admin/products/bulk-delete", nil), http.StatusBadRequest)

	expectRedirect(t, b.post("/admin/sync", nil), "/admin/products")
	if up.synced != 1 {
		t.Fatalf("synced=%d", up.synced)
	}
}

func TestLogoutAndRevokedSession(t *testing.T) {
	app, up := newApp(t)
	b := login(t, app)
	expectRedirect(t, b.post("/logout", nil), "/")
	expectRedirect(t, b.get("/admin/orders"), "/login")

	b = login(t, app)
	up.mu.Lock()
	up.revoked = true
	up.mu.Unlock()
	expectRedirect(t, b.get("/admin/orders"), "/login")
}

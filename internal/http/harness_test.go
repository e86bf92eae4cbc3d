package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"kioskpos/internal/cache"
	"kioskpos/internal/client"
	"kioskpos/internal/domain"
	"kioskpos/internal/http/handlers"
	"kioskpos/internal/repos"
)

const adminToken = "tok-admin"

// upstream is a fake REST backend with just enough state for the kiosk.
type upstream struct {
	mu sync.Mutex

	products   []domain.Product
	categories []domain.Category
	customers  []domain.Customer
	orders     []domain.Order

	placed     []domain.NewOrder
	failOrders bool
	revoked    bool

	statusUpdates map[string]domain.OrderStatus
	createdCats   []domain.Category
	savedProducts []domain.Product
	bulkDeleted   [][]string
	synced        int

	srv *httptest.Server
}

func seedUpstream() *upstream {
	at := func(d int) time.Time { return time.Date(2026, 3, d, 10, 0, 0, 0, time.Local) }
	return &upstream{
		categories: []domain.Category{
			{ID: "cat_1", Name: "Pipes", Level: domain.LevelMain},
			{ID: "cat_2", Name: "Valves", Level: domain.LevelMain},
			{ID: "sub_1", Name: "Copper", Level: domain.LevelSub, ParentID: "cat_1"},
			{ID: "sub_2", Name: "PVC", Level: domain.LevelSub, ParentID: "cat_1"},
			{ID: "det_1", Name: "15A", Level: domain.LevelDetail, ParentID: "sub_1"},
		},
		products: []domain.Product{
			{
				ID: "p1", Name: "Copper pipe", Price: 10000, ErpCode: "ERP-P1",
				MainCategory: "cat_1", SubCategory: "sub_1", DetailCategory: "det_1",
				Hashtags: []string{"#copper"}, IsComplexOptions: true,
				OptionGroups: []domain.OptionGroup{
					{Name: "Size", Values: []string{"S", "M"}},
					{Name: "Color", Values: []string{"Red", "Blue"}},
				},
				Combinations: []domain.Combination{
					{ID: "c-0", Name: "S / Red", Price: 0},
					{ID: "c-1", Name: "S / Blue", Price: 200, ErpCode: "E-SB"},
					{ID: "c-2", Name: "M / Red", Price: 500},
				},
			},
			{ID: "p2", Name: "PVC elbow", Price: 1500, MainCategory: "cat_1", SubCategory: "sub_2", Hashtags: []string{"#pvc"}, ErpCode: "ERP-P2"},
			{ID: "p3", Name: "Gate valve", Price: 20000, MainCategory: "cat_2",
				Sizes: []domain.AxisValue{{Name: "15A"}, {Name: "20A", Price: 3000}}},
		},
		customers: []domain.Customer{{Code: "77", Name: "Kim Supply"}},
		orders: []domain.Order{
			{ID: "o-7", CustomerName: "Park", TotalAmount: 2000, Status: domain.StatusCompleted, Timestamp: at(1)},
			{ID: "o-8", CustomerName: "Lee", TotalAmount: 3000, Status: domain.StatusCancelled, Timestamp: at(2)},
			{ID: "o-9", CustomerName: "Lee", TotalAmount: 5000, Status: domain.StatusPending, Timestamp: at(3)},
		},
		statusUpdates: map[string]domain.OrderStatus{},
	}
}

func (u *upstream) authed(w http.ResponseWriter, r *http.Request) bool {
	u.mu.Lock()
	revoked := u.revoked
	u.mu.Unlock()
	ck, err := r.Cookie(client.AuthCookie)
	if err != nil || ck.Value != adminToken || revoked {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (u *upstream) start(t *testing.T) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, u.products)
	})
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, u.categories)
	})
	mux.HandleFunc("GET /api/customers", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, u.customers)
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var o domain.NewOrder
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.failOrders {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		u.placed = append(u.placed, o)
		writeJSON(w, domain.Order{
			ID: fmt.Sprintf("web-%d", len(u.placed)), CustomerName: o.CustomerName, ErpCustomerCode: o.ErpCustomerCode,
			Items: o.Items, TotalAmount: o.TotalAmount, Status: o.Status, Timestamp: time.Now(),
		})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "admin" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: client.AuthCookie, Value: adminToken, Path: "/"})
	})
	mux.HandleFunc("GET /api/auth/check", func(w http.ResponseWriter, r *http.Request) {
		u.authed(w, r)
	})
	mux.HandleFunc("GET /api/orders/admin", func(w http.ResponseWriter, r *http.Request) {
		if !u.authed(w, r) {
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		writeJSON(w, u.orders)
	})
	mux.HandleFunc("PUT /api/orders/admin/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if !u.authed(w, r) {
			return
		}
		var st domain.OrderStatus
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		u.statusUpdates[r.PathValue("id")] = st
		writeJSON(w, domain.Order{ID: r.PathValue("id"), Status: st})
	})
	mux.HandleFunc("POST /api/categories/admin", func(w http.ResponseWriter, r *http.Request) {
		if !u.authed(w, r) {
			return
		}
		var c domain.Category
		_ = json.NewDecoder(r.Body).Decode(&c)
		u.mu.Lock()
		defer u.mu.Unlock()
		u.createdCats = append(u.createdCats, c)
		u.categories = append(u.categories, c)
		writeJSON(w, c)
	})
	mux.HandleFunc("POST /api/products/admin", func(w http.ResponseWriter, r *http.Request) {
		if !u.authed(w, r) {
			return
		}
		var p domain.Product
		_ = json.NewDecoder(r.Body).Decode(&p)
		u.mu.Lock()
		defer u.mu.Unlock()
		p.ID = fmt.Sprintf("p%d", len(u.products)+1)
		u.savedProducts = append(u.savedProducts, p)
		u.products = append(u.products, p)
		writeJSON(w, p)
	})
	mux.HandleFunc("POST /api/products/admin/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
		if !u.authed(w, r) {
			return
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		defer u.mu.Unlock()
		u.bulkDeleted = append(u.bulkDeleted, body.IDs)
	})
	mux.HandleFunc("POST /api/sync/erp", func(w http.ResponseWriter, r *http.Request) {
		if !u.authed(w, r) {
			return
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		u.synced++
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
}

// newApp wires the real routes against a fake backend, with the same
// csrf setup as the server.
func newApp(t *testing.T) (*fiber.App, *upstream) {
	t.Helper()
	up := seedUpstream()
	up.start(t)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	deps := handlers.NewDeps(db, client.New(up.srv.URL, 2*time.Second), cache.NewMemory(0))

	app := fiber.New(fiber.Config{Views: handlers.NewEngine("../../web/templates", "Test Store")})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax", Next: handlers.CSRFExempt}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	deps.Mount(app)
	return app, up
}

// browser keeps cookies across requests like a kiosk tablet would.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	b := &browser{t: t, app: app, cookies: map[string]string{}}
	b.get("/login") // picks up the csrf cookie
	return b
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for k, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.do(httptest.NewRequest("GET", path, nil))
}

func (b *browser) post(path string, form url.Values) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", b.cookies["csrf_"])
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path string, v any) *http.Response {
	raw, err := json.Marshal(v)
	if err != nil {
		b.t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d; body=%s", resp.StatusCode, want, readBody(t, resp))
	}
}

func expectRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	expectStatus(t, resp, http.StatusFound)
	if loc := resp.Header.Get("Location"); loc != to {
		t.Fatalf("Location = %q, want %q", loc, to)
	}
}

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"kioskpos/internal/domain"
)

// NetworkError is any failed collaborator call: transport failure,
// non-2xx status or an undecodable body. Status is 0 for transport errors.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a NetworkError with the given status.
func IsStatus(err error, status int) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Status == status
}

const AuthCookie = "connect.sid"

// Client talks to the store's REST backend. Calls are fire-and-await with
// no retries.
type Client struct {
	BaseURL string
	Timeout time.Duration
	hc      *fasthttp.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: timeout,
		hc: &fasthttp.Client{
			Name:                "kioskpos",
			MaxIdleConnDuration: time.Minute,
		},
	}
}

type call struct {
	op     string
	method string
	path   string
	token  string
	body   any
	out    any
}

// do runs a call and returns the response's auth cookie, if any.
func (c *Client) do(cl call) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.BaseURL + cl.path)
	req.Header.SetMethod(cl.method)
	req.Header.Set("Accept", "application/json")
	if cl.token != "" {
		req.Header.SetCookie(AuthCookie, cl.token)
	}
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return "", &NetworkError{Op: cl.op, Err: err}
		}
		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}

	if err := c.hc.DoTimeout(req, resp, c.Timeout); err != nil {
		return "", &NetworkError{Op: cl.op, Err: err}
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return "", &NetworkError{Op: cl.op, Status: code}
	}
	if cl.out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), cl.out); err != nil {
			return "", &NetworkError{Op: cl.op, Err: fmt.Errorf("decode: %w", err)}
		}
	}

	ck := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(ck)
	ck.SetKey(AuthCookie)
	if resp.Header.Cookie(ck) {
		return string(ck.Value()), nil
	}
	return "", nil
}

func esc(id string) string { return url.PathEscape(id) }

// ---------- Catalog ----------

func (c *Client) Products() ([]domain.Product, error) {
	var out []domain.Product
	_, err := c.do(call{op: "products.list", method: fasthttp.MethodGet, path: "/api/products", out: &out})
	return out, err
}

func (c *Client) Categories() ([]domain.Category, error) {
	var out []domain.Category
	_, err := c.do(call{op: "categories.list", method: fasthttp.MethodGet, path: "/api/categories", out: &out})
	return out, err
}

func (c *Client) Customers() ([]domain.Customer, error) {
	var out []domain.Customer
	_, err := c.do(call{op: "customers.list", method: fasthttp.MethodGet, path: "/api/customers", out: &out})
	return out, err
}

// ---------- Orders ----------

func (c *Client) PlaceOrder(o domain.NewOrder) (domain.Order, error) {
	var out domain.Order
	_, err := c.do(call{op: "orders.create", method: fasthttp.MethodPost, path: "/api/orders", body: o, out: &out})
	return out, err
}

func (c *Client) Orders(token string) ([]domain.Order, error) {
	var out []domain.Order
	_, err := c.do(call{op: "orders.list", method: fasthttp.MethodGet, path: "/api/orders/admin", token: token, out: &out})
	return out, err
}

// UpdateOrderStatus sends the bare status string as the JSON body.
func (c *Client) UpdateOrderStatus(token, id string, status domain.OrderStatus) (domain.Order, error) {
	var out domain.Order
	_, err := c.do(call{
		op: "orders.status", method: fasthttp.MethodPut,
		path:  "/api/orders/admin/" + esc(id) + "/status",
		token: token, body: status, out: &out,
	})
	return out, err
}

func (c *Client) DeleteOrder(token, id string) error {
	_, err := c.do(call{op: "orders.delete", method: fasthttp.MethodDelete, path: "/api/orders/admin/" + esc(id), token: token})
	return err
}

// ---------- Category admin ----------

func (c *Client) CreateCategory(token string, cat domain.Category) (domain.Category, error) {
	var out domain.Category
	_, err := c.do(call{op: "categories.create", method: fasthttp.MethodPost, path: "/api/categories/admin", token: token, body: cat, out: &out})
	return out, err
}

func (c *Client) UpdateCategory(token string, cat domain.Category) (domain.Category, error) {
	var out domain.Category
	_, err := c.do(call{op: "categories.update", method: fasthttp.MethodPut, path: "/api/categories/admin/" + esc(cat.ID), token: token, body: cat, out: &out})
	return out, err
}

func (c *Client) DeleteCategory(token, id string) error {
	_, err := c.do(call{op: "categories.delete", method: fasthttp.MethodDelete, path: "/api/categories/admin/" + esc(id), token: token})
	return err
}

// ---------- Product admin ----------

func (c *Client) SaveProduct(token string, p domain.Product) (domain.Product, error) {
	var out domain.Product
	cl := call{op: "products.create", method: fasthttp.MethodPost, path: "/api/products/admin", token: token, body: p, out: &out}
	if p.ID != "" {
		cl.op, cl.method, cl.path = "products.update", fasthttp.MethodPut, "/api/products/admin/"+esc(p.ID)
	}
	_, err := c.do(cl)
	return out, err
}

func (c *Client) DeleteProduct(token, id string) error {
	_, err := c.do(call{op: "products.delete", method: fasthttp.MethodDelete, path: "/api/products/admin/" + esc(id), token: token})
	return err
}

func (c *Client) BulkDeleteProducts(token string, ids []string) error {
	_, err := c.do(call{
		op: "products.bulk_delete", method: fasthttp.MethodPost, path: "/api/products/admin/bulk-delete",
		token: token, body: map[string][]string{"ids": ids},
	})
	return err
}

// SyncERP asks the backend to pull the ERP item master.
func (c *Client) SyncERP(token string) error {
	_, err := c.do(call{op: "erp.sync", method: fasthttp.MethodPost, path: "/api/sync/erp", token: token})
	return err
}

// ---------- Auth ----------

// Login returns the upstream session cookie for later admin calls.
func (c *Client) Login(username, password string) (string, error) {
	tok, err := c.do(call{
		op: "auth.login", method: fasthttp.MethodPost, path: "/api/auth/login",
		body: map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", &NetworkError{Op: "auth.login", Err: errors.New("no session cookie in response")}
	}
	return tok, nil
}

func (c *Client) CheckAuth(token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	_, err := c.do(call{op: "auth.check", method: fasthttp.MethodGet, path: "/api/auth/check", token: token})
	if IsStatus(err, fasthttp.StatusUnauthorized) || IsStatus(err, fasthttp.StatusForbidden) {
		return false, nil
	}
	return err == nil, err
}

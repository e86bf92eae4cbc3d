package services_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"kioskpos/internal/cache"
	"kioskpos/internal/client"
	"kioskpos/internal/domain"
	"kioskpos/internal/repos"
	"kioskpos/internal/services"
)

// fakeBackend stands in for the REST backend in service tests.
type fakeBackend struct {
	mu sync.Mutex

	products   []domain.Product
	categories []domain.Category
	productsFn func() ([]domain.Product, error)
	fetchErr   error
	fetches    int

	customers []domain.Customer
	placeErr  error
	placed    []domain.NewOrder

	orders   []domain.Order
	statuses map[string]domain.OrderStatus
	deleted  []string

	createdCats []domain.Category
	updatedCats []domain.Category
	saved       []domain.Product
	bulk        [][]string
	synced      int

	password string
	valid    map[string]bool
	lastTok  string
}

func (f *fakeBackend) Products() ([]domain.Product, error) {
	f.mu.Lock()
	f.fetches++
	fn, ps, err := f.productsFn, f.products, f.fetchErr
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return ps, err
}

func (f *fakeBackend) Categories() ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categories, f.fetchErr
}

func (f *fakeBackend) Customers() ([]domain.Customer, error) { return f.customers, nil }

func (f *fakeBackend) PlaceOrder(o domain.NewOrder) (domain.Order, error) {
	if f.placeErr != nil {
		return domain.Order{}, f.placeErr
	}
	f.placed = append(f.placed, o)
	return domain.Order{
		ID: fmt.Sprintf("o-%d", len(f.placed)), CustomerName: o.CustomerName, ErpCustomerCode: o.ErpCustomerCode,
		Items: o.Items, TotalAmount: o.TotalAmount, Status: o.Status,
	}, nil
}

func (f *fakeBackend) Orders(token string) ([]domain.Order, error) {
	if !f.valid[token] {
		return nil, &client.NetworkError{Op: "orders.list", Status: 401}
	}
	return f.orders, nil
}

func (f *fakeBackend) UpdateOrderStatus(token, id string, status domain.OrderStatus) (domain.Order, error) {
	if f.statuses == nil {
		f.statuses = map[string]domain.OrderStatus{}
	}
	f.statuses[id] = status
	return domain.Order{ID: id, Status: status}, nil
}

func (f *fakeBackend) DeleteOrder(token, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) CreateCategory(token string, c domain.Category) (domain.Category, error) {
	f.createdCats = append(f.createdCats, c)
	return c, nil
}

func (f *fakeBackend) UpdateCategory(token string, c domain.Category) (domain.Category, error) {
	f.updatedCats = append(f.updatedCats, c)
	return c, nil
}

func (f *fakeBackend) DeleteCategory(token, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) SaveProduct(token string, p domain.Product) (domain.Product, error) {
	f.saved = append(f.saved, p)
	if p.ID == "" {
		p.ID = "new-product"
	}
	return p, nil
}

func (f *fakeBackend) DeleteProduct(token, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) BulkDeleteProducts(token string, ids []string) error {
	f.bulk = append(f.bulk, ids)
	return nil
}

func (f *fakeBackend) SyncERP(token string) error {
	f.synced++
	return nil
}

func (f *fakeBackend) Login(username, password string) (string, error) {
	if password != f.password {
		return "", &client.NetworkError{Op: "auth.login", Status: 401}
	}
	f.lastTok = "tok-" + username
	if f.valid == nil {
		f.valid = map[string]bool{}
	}
	f.valid[f.lastTok] = true
	return f.lastTok, nil
}

func (f *fakeBackend) CheckAuth(token string) (bool, error) { return f.valid[token], nil }

func seedCatalog() ([]domain.Category, []domain.Product) {
	cats := []domain.Category{
		{ID: "cat_1", Name: "Pipes", Level: domain.LevelMain},
		{ID: "cat_2", Name: "Valves", Level: domain.LevelMain},
		{ID: "sub_1", Name: "Copper", Level: domain.LevelSub, ParentID: "cat_1"},
		{ID: "sub_2", Name: "PVC", Level: domain.LevelSub, ParentID: "cat_1"},
		{ID: "det_1", Name: "15A", Level: domain.LevelDetail, ParentID: "sub_1"},
	}
	products := []domain.Product{
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
	}
	return cats, products
}

type harness struct {
	db       *sqlx.DB
	backend  *fakeBackend
	catalog  *services.CatalogService
	kiosk    *services.KioskService
	admin    *services.AdminService
	auth     *services.AuthService
	sessions *repos.SessionRepo
	carts    *repos.CartRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cats, products := seedCatalog()
	fb := &fakeBackend{categories: cats, products: products, password: "secret",
		customers: []domain.Customer{{Code: "77", Name: "Kim Supply"}}}
	cat := services.NewCatalogService(fb, cache.NewMemory(0))
	sessions := repos.NewSessionRepo(db)
	carts := repos.NewCartRepo(db)
	n := 0
	return &harness{
		db:       db,
		backend:  fb,
		catalog:  cat,
		sessions: sessions,
		carts:    carts,
		kiosk: &services.KioskService{
			Catalog: cat, Sessions: sessions, Carts: carts, Receipts: repos.NewOrderRepo(db),
			Orders: fb, Customers: fb,
			NewID: func() string { n++; return fmt.Sprintf("line-%d", n) },
		},
		admin: &services.AdminService{Backend: fb, Catalog: cat},
		auth:  &services.AuthService{Backend: fb, Sessions: sessions},
	}
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"kioskpos/internal/catalog"
	"kioskpos/internal/domain"
	"kioskpos/internal/pricing"
)

// AdminBackend is the authenticated side of the REST backend. Every call
// carries the upstream auth token of the admin session.
type AdminBackend interface {
	Orders(token string) ([]domain.Order, error)
	UpdateOrderStatus(token, id string, status domain.OrderStatus) (domain.Order, error)
	DeleteOrder(token, id string) error
	CreateCategory(token string, cat domain.Category) (domain.Category, error)
	UpdateCategory(token string, cat domain.Category) (domain.Category, error)
	DeleteCategory(token, id string) error
	SaveProduct(token string, p domain.Product) (domain.Product, error)
	DeleteProduct(token, id string) error
	BulkDeleteProducts(token string, ids []string) error
	SyncERP(token string) error
}

type AdminService struct {
	Backend AdminBackend
	Catalog *CatalogService
	Now     func() time.Time
}

func (s *AdminService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// ---------- Orders ----------

// OrderFilter narrows the order list. Status "" or "all" keeps every
// status; From is inclusive, To exclusive, zero times are open ends.
type OrderFilter struct {
	Status   string
	Customer string
	From     time.Time
	To       time.Time
}

func (f OrderFilter) match(o domain.Order) bool {
	if f.Status != "" && f.Status != "all" && string(o.Status) != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Customer)); q != "" &&
		!strings.Contains(strings.ToLower(o.CustomerName), q) {
		return false
	}
	if !f.From.IsZero() && o.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !o.Timestamp.Before(f.To) {
		return false
	}
	return true
}

type OrdersReport struct {
	Orders  []domain.Order
	Revenue int
	Counts  map[domain.OrderStatus]int
}

// ListOrders returns matching orders newest first. Revenue sums the
// matching orders that were not cancelled; Counts covers all orders.
func (s *AdminService) ListOrders(sess domain.AdminSession, f OrderFilter) (OrdersReport, error) {
	all, err := s.Backend.Orders(sess.Token)
	if err != nil {
		return OrdersReport{}, err
	}
	rep := OrdersReport{Orders: []domain.Order{}, Counts: map[domain.OrderStatus]int{}}
	for _, o := range all {
		rep.Counts[o.Status]++
		if !f.match(o) {
			continue
		}
		rep.Orders = append(rep.Orders, o)
		if o.Status != domain.StatusCancelled {
			rep.Revenue += o.TotalAmount
		}
	}
	sort.SliceStable(rep.Orders, func(i, j int) bool {
		return rep.Orders[i].Timestamp.After(rep.Orders[j].Timestamp)
	})
	return rep, nil
}

func (s *AdminService) UpdateOrderStatus(sess domain.AdminSession, id string, status domain.OrderStatus) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, domain.Invalid("id", "order id required")
	}
	if !status.Valid() {
		return domain.Order{}, domain.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.Backend.UpdateOrderStatus(sess.Token, id, status)
}

func (s *AdminService) DeleteOrder(sess domain.AdminSession, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid("id", "order id required")
	}
	return s.Backend.DeleteOrder(sess.Token, id)
}

// ---------- Categories ----------

var levelPrefix = map[domain.Level]string{
	domain.LevelMain:   "cat_",
	domain.LevelSub:    "sub_",
	domain.LevelDetail: "det_",
}

var parentOf = map[domain.Level]domain.Level{
	domain.LevelSub:    domain.LevelMain,
	domain.LevelDetail: domain.LevelSub,
}

// CategoryView is the admin category page: the full tree plus the mains
// matching the search box.
type CategoryView struct {
	Tree    *catalog.Tree
	Matches []domain.Category
	Query   string
}

func (s *AdminService) Categories(ctx context.Context, q string) (CategoryView, error) {
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return CategoryView{}, err
	}
	return CategoryView{Tree: v.Tree, Matches: v.Tree.Search(q), Query: strings.TrimSpace(q)}, nil
}

// CreateCategory mints a level-prefixed id and checks the parent against
// the current tree.
func (s *AdminService) CreateCategory(ctx context.Context, sess domain.AdminSession, name string, level domain.Level, parentID string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.Invalid("name", "category name required")
	}
	prefix, ok := levelPrefix[level]
	if !ok {
		return domain.Category{}, domain.Invalid("level", fmt.Sprintf("unknown level %q", level))
	}
	cat := domain.Category{ID: fmt.Sprintf("%s%d", prefix, s.now().UnixMilli()), Name: name, Level: level}
	if want, needsParent := parentOf[level]; needsParent {
		v, err := s.Catalog.Current(ctx)
		if err != nil {
			return domain.Category{}, err
		}
		parent, found := v.Tree.Get(parentID)
		if !found || parent.Level != want {
			return domain.Category{}, domain.Invalid("parentId", fmt.Sprintf("a %s category needs a %s parent", level, want))
		}
		cat.ParentID = parentID
	}
	out, err := s.Backend.CreateCategory(sess.Token, cat)
	if err != nil {
		return domain.Category{}, err
	}
	s.Catalog.Invalidate(ctx)
	return out, nil
}

func (s *AdminService) RenameCategory(ctx context.Context, sess domain.AdminSession, id, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.Invalid("name", "category name required")
	}
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	cat, ok := v.Tree.Get(id)
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	cat.Name = name
	out, err := s.Backend.UpdateCategory(sess.Token, cat)
	if err != nil {
		return domain.Category{}, err
	}
	s.Catalog.Invalidate(ctx)
	return out, nil
}

func (s *AdminService) DeleteCategory(ctx context.Context, sess domain.AdminSession, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid("id", "category id required")
	}
	if err := s.Backend.DeleteCategory(sess.Token, id); err != nil {
		return err
	}
	s.Catalog.Invalidate(ctx)
	return nil
}

// ---------- Products ----------

// NormalizeHashtags turns "pvc, #steel,," into ["#pvc", "#steel"].
func NormalizeHashtags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		t = strings.TrimSpace(strings.TrimLeft(t, "#"))
		if t == "" {
			continue
		}
		out = append(out, "#"+t)
	}
	return out
}

// ProductInput is the admin product form. Prices and ErpCodes are keyed by
// combination name and override the generated or carried-over values.
type ProductInput struct {
	ID             string
	Name           string
	Description    string
	Price          int
	MainCategory   string
	SubCategory    string
	DetailCategory string
	Hashtags       string
	Images         []string
	ErpCode        string
	Groups         []pricing.RawGroup
	Prices         map[string]int
	ErpCodes       map[string]string
}

func hasGroups(raw []pricing.RawGroup) bool {
	for _, g := range raw {
		if strings.TrimSpace(g.Name) != "" || strings.TrimSpace(g.Values) != "" {
			return true
		}
	}
	return false
}

// PreviewCombinations regenerates combinations for the form, keeping the
// prices of the saved product's combinations with the same name.
func (s *AdminService) PreviewCombinations(ctx context.Context, productID string, raw []pricing.RawGroup) ([]domain.OptionGroup, []domain.Combination, error) {
	groups, combos, err := pricing.GenerateCombinations(raw)
	if err != nil {
		return nil, nil, err
	}
	if prev, ok := s.previous(ctx, productID); ok {
		combos = pricing.MergePrices(combos, prev.Combinations)
	}
	return groups, combos, nil
}

func (s *AdminService) previous(ctx context.Context, productID string) (domain.Product, bool) {
	if productID == "" {
		return domain.Product{}, false
	}
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return domain.Product{}, false
	}
	return v.Product(productID)
}

// BuildProduct validates the form and assembles the product to save.
func (s *AdminService) BuildProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, domain.Invalid("name", "product name required")
	}
	if in.Price < 0 {
		return domain.Product{}, domain.Invalid("price", "price must not be negative")
	}
	if strings.TrimSpace(in.MainCategory) == "" {
		return domain.Product{}, domain.Invalid("mainCategory", "main category required")
	}
	p := domain.Product{
		ID:             strings.TrimSpace(in.ID),
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		Price:          in.Price,
		MainCategory:   in.MainCategory,
		SubCategory:    in.SubCategory,
		DetailCategory: in.DetailCategory,
		Hashtags:       NormalizeHashtags(in.Hashtags),
		Images:         in.Images,
		ErpCode:        strings.TrimSpace(in.ErpCode),
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	prev, hadPrev := s.previous(ctx, p.ID)

	if !hasGroups(in.Groups) {
		p.OptionGroups, p.Combinations = []domain.OptionGroup{}, []domain.Combination{}
		if hadPrev {
			p.Sizes, p.Origins = prev.Sizes, prev.Origins
		}
		return p, nil
	}

	groups, combos, err := pricing.GenerateCombinations(in.Groups)
	if err != nil {
		return domain.Product{}, err
	}
	if hadPrev {
		combos = pricing.MergePrices(combos, prev.Combinations)
	}
	for i := range combos {
		if price, ok := in.Prices[combos[i].Name]; ok {
			combos[i].Price = price
		}
		if code, ok := in.ErpCodes[combos[i].Name]; ok {
			combos[i].ErpCode = strings.TrimSpace(code)
		}
	}
	p.IsComplexOptions = true
	p.OptionGroups, p.Combinations = groups, combos
	return p, nil
}

func (s *AdminService) SaveProduct(ctx context.Context, sess domain.AdminSession, in ProductInput) (domain.Product, error) {
	p, err := s.BuildProduct(ctx, in)
	if err != nil {
		return domain.Product{}, err
	}
	out, err := s.Backend.SaveProduct(sess.Token, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.Catalog.Invalidate(ctx)
	return out, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, sess domain.AdminSession, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid("id", "product id required")
	}
	if err := s.Backend.DeleteProduct(sess.Token, id); err != nil {
		return err
	}
	s.Catalog.Invalidate(ctx)
	return nil
}

// BulkDeleteProducts drops blank and repeated ids before calling upstream.
func (s *AdminService) BulkDeleteProducts(ctx context.Context, sess domain.AdminSession, ids []string) (int, error) {
	seen := make(map[string]bool, len(ids))
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
	}
	if len(clean) == 0 {
		return 0, domain.Invalid("ids", "select at least one product")
	}
	if err := s.Backend.BulkDeleteProducts(sess.Token, clean); err != nil {
		return 0, err
	}
	s.Catalog.Invalidate(ctx)
	return len(clean), nil
}

// SyncERP pulls the ERP item master upstream and drops the cached catalog.
func (s *AdminService) SyncERP(ctx context.Context, sess domain.AdminSession) error {
	if err := s.Backend.SyncERP(sess.Token); err != nil {
		return err
	}
	s.Catalog.Invalidate(ctx)
	return nil
}

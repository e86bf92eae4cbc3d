package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kioskpos/internal/cart"
	"kioskpos/internal/catalog"
	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
	"kioskpos/internal/pricing"
	"kioskpos/internal/repos"
)

var ErrNotFound = errors.New("not found")

type OrderPlacer interface {
	PlaceOrder(o domain.NewOrder) (domain.Order, error)
}

type CustomerSource interface {
	Customers() ([]domain.Customer, error)
}

// KioskService runs one browser session of the kiosk: filter state, option
// selection, cart and checkout. State is persisted per sid.
type KioskService struct {
	Catalog   *CatalogService
	Sessions  *repos.SessionRepo
	Carts     *repos.CartRepo
	Receipts  *repos.OrderRepo
	Orders    OrderPlacer
	Customers CustomerSource

	// NewID overrides cart line ids in tests.
	NewID func() string
}

type CartSummary struct {
	Items []domain.CartItem `json:"items"`
	Total int               `json:"total"`
	Count int               `json:"count"`
}

func summarize(c *cart.Cart) CartSummary {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartSummary{Items: items, Total: c.Total(), Count: c.Count()}
}

type Page struct {
	State      catalog.FilterState
	Mains      []domain.Category
	Subs       []domain.Category
	Details    []domain.Category
	Products   []domain.Product
	Generation uint64
	Cart       CartSummary
}

func (s *KioskService) newCart(items []domain.CartItem) *cart.Cart {
	c := cart.New(items)
	if s.NewID != nil {
		c.NewID = s.NewID
	}
	return c
}

func (s *KioskService) loadCart(sid string) (*cart.Cart, error) {
	items, err := s.Carts.Load(sid)
	if err != nil {
		return nil, err
	}
	return s.newCart(items), nil
}

// updateCart applies change to the stored cart inside one transaction.
func (s *KioskService) updateCart(sid string, change func(*cart.Cart)) (CartSummary, error) {
	var sum CartSummary
	err := s.Carts.Update(sid, func(items []domain.CartItem) ([]domain.CartItem, error) {
		c := s.newCart(items)
		change(c)
		sum = summarize(c)
		return c.Items, nil
	})
	if err != nil {
		return CartSummary{}, err
	}
	return sum, nil
}

// state returns the session's filter, seeding the initial selection on the
// first visit after a catalog is available.
func (s *KioskService) state(sid string, v *CatalogView) (catalog.FilterState, error) {
	st, ok, err := s.Sessions.Filter(sid)
	if err != nil || ok {
		return st, err
	}
	st = catalog.InitialState(v.Tree)
	if v.Tree.Len() == 0 {
		return st, nil
	}
	return st, s.Sessions.SaveFilter(sid, st)
}

func (s *KioskService) Page(ctx context.Context, sid string) (Page, error) {
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return Page{}, err
	}
	st, err := s.state(sid, v)
	if err != nil {
		return Page{}, err
	}
	c, err := s.loadCart(sid)
	if err != nil {
		return Page{}, err
	}
	p := Page{
		State:      st,
		Mains:      v.Tree.Mains(),
		Products:   v.Visible(st),
		Generation: v.Generation,
		Cart:       summarize(c),
	}
	if st.ActiveMain != "" {
		p.Subs = v.Tree.Children(st.ActiveMain)
	}
	if st.ActiveSub != "" {
		p.Details = v.Tree.Children(st.ActiveSub)
	}
	return p, nil
}

// UpdateFilter applies one transition to the session's filter state.
func (s *KioskService) UpdateFilter(ctx context.Context, sid string, step func(catalog.FilterState) catalog.FilterState) (catalog.FilterState, error) {
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return catalog.FilterState{}, err
	}
	st, err := s.state(sid, v)
	if err != nil {
		return catalog.FilterState{}, err
	}
	next := step(st)
	if err := s.Sessions.SaveFilter(sid, next); err != nil {
		return catalog.FilterState{}, err
	}
	return next, nil
}

type ValueView struct {
	Value    string
	Selected bool
	Delta    int
	Badge    string
}

type GroupView struct {
	Name   string
	Values []ValueView
}

// OptionView is the product modal: groups with per-value price deltas
// against the current selection, and the quote for qty units.
type OptionView struct {
	Product    domain.Product
	Groups     []GroupView
	Selections pricing.Selections
	Quote      pricing.Quote
	Qty        int
	Total      int
}

// Options resolves sel for a product. Unknown values fall back to each
// group's first value.
func (s *KioskService) Options(ctx context.Context, productID string, sel pricing.Selections, qty int) (OptionView, error) {
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return OptionView{}, err
	}
	r, ok := v.Resolver(productID)
	if !ok {
		return OptionView{}, ErrNotFound
	}
	groups := r.Mode.Groups()
	sel = pricing.Normalize(groups, sel)
	q := r.Quote(sel)
	qty = pricing.ClampQty(qty)

	ov := OptionView{Product: r.Product, Selections: sel, Quote: q, Qty: qty, Total: q.Total(qty)}
	for _, g := range groups {
		gv := GroupView{Name: g.Name}
		for _, val := range g.Values {
			vv := ValueView{Value: val, Selected: sel[g.Name] == val}
			if d, changes := r.Delta(g.Name, val, sel); changes && !vv.Selected {
				vv.Delta, vv.Badge = d, pricing.DeltaBadge(d)
			}
			gv.Values = append(gv.Values, vv)
		}
		ov.Groups = append(ov.Groups, gv)
	}
	return ov, nil
}

// commitOption turns a modal selection into the single option the cart
// sees. Products without groups commit as the bare product.
func commitOption(r pricing.Resolver, sel pricing.Selections) (cart.Option, bool) {
	if len(r.Mode.Groups()) == 0 {
		return cart.Option{}, false
	}
	name := r.CommitName(sel)
	opt := cart.Option{ID: name, DisplayName: name, TotalExtra: r.Quote(sel).Extra}
	if _, isCombo := r.Mode.(pricing.CombinationMode); isCombo {
		for _, c := range r.Product.Combinations {
			if c.Name == name {
				opt.ErpCode = c.ErpCode
				break
			}
		}
	}
	return opt, true
}

func (s *KioskService) AddToCart(ctx context.Context, sid, productID string, sel pricing.Selections, qty int) (CartSummary, error) {
	v, err := s.Catalog.Current(ctx)
	if err != nil {
		return CartSummary{}, err
	}
	r, ok := v.Resolver(productID)
	if !ok {
		return CartSummary{}, ErrNotFound
	}
	sel = pricing.Normalize(r.Mode.Groups(), sel)
	qty = pricing.ClampQty(qty)
	return s.updateCart(sid, func(c *cart.Cart) {
		if opt, has := commitOption(r, sel); has {
			c.Add(r.Product, []cart.Option{opt}, []cart.Quantity{{OptionID: opt.ID, Qty: qty}})
		} else {
			c.Add(r.Product, nil, []cart.Quantity{{Qty: qty}})
		}
	})
}

func (s *KioskService) RemoveFromCart(sid, cartID string) (CartSummary, error) {
	return s.updateCart(sid, func(c *cart.Cart) { c.Remove(cartID) })
}

func (s *KioskService) Cart(sid string) (CartSummary, error) {
	c, err := s.loadCart(sid)
	if err != nil {
		return CartSummary{}, err
	}
	return summarize(c), nil
}

// Checkout places the session's cart upstream. The cart is cleared only
// after the backend accepted the order.
func (s *KioskService) Checkout(ctx context.Context, sid, customer string) (domain.Order, error) {
	c, err := s.loadCart(sid)
	if err != nil {
		return domain.Order{}, err
	}
	draft, err := c.Checkout(customer)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := s.Orders.PlaceOrder(draft)
	if err != nil {
		return domain.Order{}, err
	}
	// The receipt goes first: once the backend accepted the order the
	// caller is sent to it even if the cart cannot be cleared.
	if o.ID != "" {
		if err := s.Receipts.Record(sid, o); err != nil {
			applog.Error(nil, "order.receipt.fail", err, map[string]any{"order_id": o.ID})
		}
	}
	if err := s.Carts.Clear(sid); err != nil {
		return o, fmt.Errorf("order %s placed, clearing cart: %w", o.ID, err)
	}
	return o, nil
}

// Receipt returns an order placed by this session.
func (s *KioskService) Receipt(sid, orderID string) (domain.Order, error) {
	o, owner, err := s.Receipts.Get(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if owner != sid {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

// RecentOrders lists the receipts of orders this session placed, newest first.
func (s *KioskService) RecentOrders(sid string) ([]domain.Order, error) {
	return s.Receipts.ListBySession(sid)
}

// CustomerChoices formats customers the way the checkout input parses them.
func (s *KioskService) CustomerChoices() ([]string, error) {
	cs, err := s.Customers.Customers()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, fmt.Sprintf("[%s] %s", c.Code, c.Name))
	}
	return out, nil
}

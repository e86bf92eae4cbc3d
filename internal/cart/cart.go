package cart

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"kioskpos/internal/domain"
)

// Option is a combination as committed from the option view.
// TotalExtra wins over Price when set; DisplayName wins over Name.
type Option struct {
	ID          string
	Name        string
	DisplayName string
	Price       int
	TotalExtra  int
	ErpCode     string
}

func (o Option) extra() int {
	if o.TotalExtra != 0 {
		return o.TotalExtra
	}
	return o.Price
}

func (o Option) label() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Name
}

// Quantity is one requested (option id, qty) pair. Add walks them in order.
type Quantity struct {
	OptionID string
	Qty      int
}

// Cart is one session's list of lines. Lines are unique per
// (product id, selected option); cart ids are never reused.
type Cart struct {
	Items []domain.CartItem
	NewID func() string
}

func New(items []domain.CartItem) *Cart {
	return &Cart{Items: items, NewID: uuid.NewString}
}

// Add merges each positive quantity into the line for its option, or
// appends a new line. An unknown option id is added as the bare product.
func (c *Cart) Add(p domain.Product, opts []Option, qtys []Quantity) {
	for _, q := range qtys {
		if q.Qty <= 0 {
			continue
		}
		opt, found := findOption(opts, q.OptionID)

		final := p.Price
		label := ""
		erp := p.ErpCode
		if found {
			final += opt.extra()
			label = opt.label()
			erp = opt.ErpCode
			if erp == "" {
				erp = opt.ID
			}
		}

		if i := c.index(p.ID, label); i >= 0 {
			c.Items[i].Quantity = lineQty(c.Items[i]) + q.Qty
			continue
		}
		c.Items = append(c.Items, domain.CartItem{
			CartID:         c.newID(),
			ProductID:      p.ID,
			Name:           p.Name,
			SelectedOption: label,
			FinalPrice:     final,
			ErpCode:        erp,
			Quantity:       q.Qty,
		})
	}
}

// Remove drops the line with cartID. Unknown ids are ignored.
func (c *Cart) Remove(cartID string) bool {
	for i, it := range c.Items {
		if it.CartID == cartID {
			c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() { c.Items = nil }

func (c *Cart) Total() int {
	total := 0
	for _, it := range c.Items {
		total += it.FinalPrice * lineQty(it)
	}
	return total
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += lineQty(it)
	}
	return n
}

func (c *Cart) index(productID, label string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.SelectedOption == label {
			return i
		}
	}
	return -1
}

func (c *Cart) newID() string {
	if c.NewID == nil {
		return uuid.NewString()
	}
	return c.NewID()
}

func findOption(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Lines saved before quantities existed count as one.
func lineQty(it domain.CartItem) int {
	if it.Quantity < 1 {
		return 1
	}
	return it.Quantity
}

var reCustomer = regexp.MustCompile(`^\[(.*?)\] (.*)`)

const defaultCustomerCode = "1"

// ParseCustomer splits "[CODE] Name" picker entries. Free text gets the
// walk-in customer code.
func ParseCustomer(input string) (code, name string) {
	s := strings.TrimSpace(input)
	if m := reCustomer.FindStringSubmatch(s); m != nil {
		return m[1], m[2]
	}
	return defaultCustomerCode, s
}

// Checkout builds the pending order for the current lines without
// touching the cart.
func (c *Cart) Checkout(customer string) (domain.NewOrder, error) {
	if len(c.Items) == 0 {
		return domain.NewOrder{}, domain.Invalid("cart", "cart is empty")
	}
	if strings.TrimSpace(customer) == "" {
		return domain.NewOrder{}, domain.Invalid("customer", "customer name required")
	}
	code, name := ParseCustomer(customer)
	items := make([]domain.OrderItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = domain.OrderItem{
			Name:           it.Name,
			ErpCode:        it.ErpCode,
			Quantity:       lineQty(it),
			SelectedOption: it.SelectedOption,
			FinalPrice:     it.FinalPrice,
		}
	}
	return domain.NewOrder{
		CustomerName:    name,
		ErpCustomerCode: code,
		Items:           items,
		TotalAmount:     c.Total(),
		Status:          domain.StatusPending,
	}, nil
}

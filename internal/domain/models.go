package domain

import "time"

type Level string

const (
	LevelMain   Level = "main"
	LevelSub    Level = "sub"
	LevelDetail Level = "detail"
)

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    Level  `json:"level"`
	ParentID string `json:"parentId,omitempty"` // empty for main categories
}

type OptionGroup struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
	// Legacy is set for groups derived from the sizes/origins axes.
	Legacy string `json:"-"`
}

// Combination is one selectable bundle of option values. Name is the
// " / "-joined tuple and doubles as the identity of the bundle.
type Combination struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int    `json:"price"`
	ErpCode string `json:"erpCode,omitempty"`
}

// AxisValue is a value of a legacy size/origin axis carrying its own extra.
type AxisValue struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type Product struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Price            int           `json:"price"`
	MainCategory     string        `json:"mainCategory"`
	SubCategory      string        `json:"subCategory"`
	DetailCategory   string        `json:"detailCategory"`
	Hashtags         []string      `json:"hashtags"`
	Images           []string      `json:"images"`
	ErpCode          string        `json:"erpCode,omitempty"`
	IsComplexOptions bool          `json:"isComplexOptions"`
	OptionGroups     []OptionGroup `json:"optionGroups"`
	Combinations     []Combination `json:"combinations"`
	Sizes            []AxisValue   `json:"sizes,omitempty"`
	Origins          []AxisValue   `json:"origins,omitempty"`
}

type CartItem struct {
	CartID         string `json:"cartId" db:"cart_id"`
	ProductID      string `json:"productId" db:"product_id"`
	Name           string `json:"name" db:"name"`
	SelectedOption string `json:"selectedOption,omitempty" db:"selected_option"` // empty means no option
	FinalPrice     int    `json:"finalPrice" db:"final_price"`
	ErpCode        string `json:"erpCode" db:"erp_code"`
	Quantity       int    `json:"quantity" db:"quantity"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	Name           string `json:"name"`
	ErpCode        string `json:"erpCode"`
	Quantity       int    `json:"quantity"`
	SelectedOption string `json:"selectedOption,omitempty"`
	FinalPrice     int    `json:"finalPrice"`
}

type Order struct {
	ID              string      `json:"id"`
	CustomerName    string      `json:"customerName"`
	ErpCustomerCode string      `json:"erpCustomerCode"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int         `json:"totalAmount"`
	Status          OrderStatus `json:"status"`
	Timestamp       time.Time   `json:"timestamp"`
}

// NewOrder is the checkout payload; the backend assigns id and timestamp.
type NewOrder struct {
	CustomerName    string      `json:"customerName"`
	ErpCustomerCode string      `json:"erpCustomerCode"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int         `json:"totalAmount"`
	Status          OrderStatus `json:"status"`
}

type Customer struct {
	Code string `json:"CODE"`
	Name string `json:"NAME"`
}

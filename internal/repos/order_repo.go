package repos

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"kioskpos/internal/domain"
)

// OrderRepo keeps a receipt of every order this kiosk placed upstream, so
// the confirmation page survives a reload without an admin call.
type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID              string `db:"id"`
	SessionID       string `db:"session_id"`
	CustomerName    string `db:"customer_name"`
	ErpCustomerCode string `db:"erp_customer_code"`
	Total           int    `db:"total"`
	Status          string `db:"status"`
	ItemsJSON       string `db:"items_json"`
	CreatedAt       string `db:"created_at"`
}

func (row orderRow) order() (domain.Order, error) {
	o := domain.Order{
		ID:              row.ID,
		CustomerName:    row.CustomerName,
		ErpCustomerCode: row.ErpCustomerCode,
		TotalAmount:     row.Total,
		Status:          domain.OrderStatus(row.Status),
	}
	if err := json.Unmarshal([]byte(row.ItemsJSON), &o.Items); err != nil {
		return domain.Order{}, err
	}
	o.Timestamp, _ = time.Parse(time.RFC3339, row.CreatedAt)
	return o, nil
}

// Record stores the upstream order as placed by sid. Re-recording an id
// overwrites the earlier receipt.
func (r *OrderRepo) Record(sid string, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	ts := o.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = r.db.Exec(`
	  INSERT INTO kiosk_orders(id, session_id, customer_name, erp_customer_code, total, status, items_json, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET
	    session_id = excluded.session_id,
	    customer_name = excluded.customer_name,
	    erp_customer_code = excluded.erp_customer_code,
	    total = excluded.total,
	    status = excluded.status,
	    items_json = excluded.items_json,
	    created_at = excluded.created_at
	`, o.ID, sid, o.CustomerName, o.ErpCustomerCode, o.TotalAmount, string(o.Status), string(items), ts.UTC().Format(time.RFC3339))
	return err
}

// Get returns the receipt and the session that placed it.
func (r *OrderRepo) Get(id string) (domain.Order, string, error) {
	var row orderRow
	if err := r.db.Get(&row, `
		SELECT id, session_id, customer_name, erp_customer_code, total, status, items_json, created_at
		FROM kiosk_orders WHERE id = ?
	`, id); err != nil {
		return domain.Order{}, "", err
	}
	o, err := row.order()
	return o, row.SessionID, err
}

// ListBySession returns the session's receipts, newest first.
func (r *OrderRepo) ListBySession(sid string) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.Select(&rows, `
		SELECT id, session_id, customer_name, erp_customer_code, total, status, items_json, created_at
		FROM kiosk_orders
		WHERE session_id = ?
		ORDER BY created_at DESC
	`, sid); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.order()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

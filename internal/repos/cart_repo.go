package repos

import (
	"github.com/jmoiron/sqlx"

	"kioskpos/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Load returns the session's lines in insertion order.
func (r *CartRepo) Load(sid string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := r.db.Select(&out, `
	  SELECT cart_id, product_id, name, selected_option, final_price, erp_code, quantity
	  FROM cart_items
	  WHERE session_id = ?
	  ORDER BY seq
	`, sid)
	return out, err
}

// Save replaces the session's lines with items in one transaction.
func (r *CartRepo) Save(sid string, items []domain.CartItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := touchSession(tx, sid); err != nil {
		return err
	}
	if err := writeItems(tx, sid, items); err != nil {
		return err
	}
	return tx.Commit()
}

// Update loads the session's lines, passes them to change and saves what it
// returns, all in one transaction. The session row is touched first so the
// write lock is held before the read and concurrent updates of one cart
// queue up. Nothing is written when change fails.
func (r *CartRepo) Update(sid string, change func([]domain.CartItem) ([]domain.CartItem, error)) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := touchSession(tx, sid); err != nil {
		return err
	}
	items := []domain.CartItem{}
	if err := tx.Select(&items, `
	  SELECT cart_id, product_id, name, selected_option, final_price, erp_code, quantity
	  FROM cart_items
	  WHERE session_id = ?
	  ORDER BY seq
	`, sid); err != nil {
		return err
	}
	next, err := change(items)
	if err != nil {
		return err
	}
	if err := writeItems(tx, sid, next); err != nil {
		return err
	}
	return tx.Commit()
}

func touchSession(tx *sqlx.Tx, sid string) error {
	_, err := tx.Exec(`
		INSERT INTO kiosk_sessions(id, updated_at) VALUES(?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, sid)
	return err
}

func writeItems(tx *sqlx.Tx, sid string, items []domain.CartItem) error {
	if _, err := tx.Exec(`DELETE FROM cart_items WHERE session_id = ?`, sid); err != nil {
		return err
	}
	for i, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO cart_items(cart_id, session_id, product_id, name, selected_option, final_price, erp_code, quantity, seq)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, it.CartID, sid, it.ProductID, it.Name, it.SelectedOption, it.FinalPrice, it.ErpCode, qty, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *CartRepo) Clear(sid string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE session_id = ?`, sid)
	return err
}

package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	memory := strings.Contains(dsn, ":memory:")
	// concurrent cart writers wait for the lock instead of failing with SQLITE_BUSY
	if !memory && !strings.Contains(dsn, "busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// every pooled connection to :memory: would get its own empty database
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Browser sessions of the kiosk (sid cookie)
CREATE TABLE IF NOT EXISTS kiosk_sessions(
  id TEXT PRIMARY KEY,
  filter_set INTEGER NOT NULL DEFAULT 0,
  active_main TEXT NOT NULL DEFAULT '',
  active_sub TEXT NOT NULL DEFAULT '',
  active_detail TEXT NOT NULL DEFAULT '',
  search_query TEXT NOT NULL DEFAULT '',
  admin_token TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_kiosk_sessions_updated ON kiosk_sessions(updated_at);

-- Cart lines, one per (product, selected option) per session
CREATE TABLE IF NOT EXISTS cart_items(
  cart_id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES kiosk_sessions(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  selected_option TEXT NOT NULL DEFAULT '',
  final_price INTEGER NOT NULL,
  erp_code TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  seq INTEGER NOT NULL,
  UNIQUE(session_id, product_id, selected_option)
);
CREATE INDEX IF NOT EXISTS idx_cart_items_session ON cart_items(session_id, seq);

-- Receipts of orders placed from this kiosk
CREATE TABLE IF NOT EXISTS kiosk_orders(
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  erp_customer_code TEXT NOT NULL,
  total INTEGER NOT NULL,
  status TEXT NOT NULL,
  items_json TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kiosk_orders_session ON kiosk_orders(session_id);
`
	_, err := db.Exec(schema)
	return err
}

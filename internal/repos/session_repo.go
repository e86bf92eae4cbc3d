package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"kioskpos/internal/catalog"
)

type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

const sqliteTime = "2006-01-02 15:04:05"

// Ensure creates the session row if missing and bumps last activity.
func (r *SessionRepo) Ensure(sid string) error {
	_, err := r.db.Exec(`
		INSERT INTO kiosk_sessions(id, updated_at) VALUES(?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, sid)
	return err
}

type filterRow struct {
	FilterSet bool `db:"filter_set"`
	catalog.FilterState
}

// Filter returns the saved filter state. ok is false for a session that has
// never had one, so the caller can seed the initial state.
func (r *SessionRepo) Filter(sid string) (st catalog.FilterState, ok bool, err error) {
	var row filterRow
	err = r.db.Get(&row, `
		SELECT filter_set, active_main, active_sub, active_detail, search_query
		FROM kiosk_sessions WHERE id = ?
	`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.FilterState{}, false, nil
	}
	if err != nil {
		return catalog.FilterState{}, false, err
	}
	return row.FilterState, row.FilterSet, nil
}

func (r *SessionRepo) SaveFilter(sid string, st catalog.FilterState) error {
	_, err := r.db.Exec(`
		INSERT INTO kiosk_sessions(id, filter_set, active_main, active_sub, active_detail, search_query, updated_at)
		VALUES(?, 1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		  filter_set = 1,
		  active_main = excluded.active_main,
		  active_sub = excluded.active_sub,
		  active_detail = excluded.active_detail,
		  search_query = excluded.search_query,
		  updated_at = CURRENT_TIMESTAMP
	`, sid, st.ActiveMain, st.ActiveSub, st.ActiveDetail, st.SearchQuery)
	return err
}

// BindAdmin stores the upstream auth cookie for the session.
func (r *SessionRepo) BindAdmin(sid, token string) error {
	_, err := r.db.Exec(`
		INSERT INTO kiosk_sessions(id, admin_token, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET admin_token = excluded.admin_token, updated_at = CURRENT_TIMESTAMP
	`, sid, token)
	return err
}

func (r *SessionRepo) UnbindAdmin(sid string) error {
	_, err := r.db.Exec(`UPDATE kiosk_sessions SET admin_token = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, sid)
	return err
}

// AdminToken is empty for unknown or logged-out sessions.
func (r *SessionRepo) AdminToken(sid string) (string, error) {
	var tok string
	err := r.db.Get(&tok, `SELECT admin_token FROM kiosk_sessions WHERE id = ?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tok, err
}

// PurgeIdle deletes sessions (and their carts) idle since before.
func (r *SessionRepo) PurgeIdle(before time.Time) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	cutoff := before.UTC().Format(sqliteTime)
	if _, err := tx.Exec(`
		DELETE FROM cart_items WHERE session_id IN
		  (SELECT id FROM kiosk_sessions WHERE datetime(updated_at) < datetime(?))
	`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM kiosk_sessions WHERE datetime(updated_at) < datetime(?)`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"happy-sandwich/models"
	"happy-sandwich/services"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is the file or in-memory store used for local runs and tests.
type SQLite struct {
	db *sql.DB
	q  sqlQuerier
	tx *sql.Tx
}

var _ services.Store = (*SQLite)(nil)

// OpenSQLite opens path (":memory:" for a throwaway database) and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: a single writer, and ":memory:" lives per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLite{db: db, q: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	migrations, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		err := s.WithTx(ctx, func(tx services.Store) error {
			q := tx.(*SQLite).q
			var n int
			if err := q.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM schema_migrations WHERE migration_name = ?`, m.Name,
			).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
			if _, err := q.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx,
				`INSERT INTO schema_migrations (migration_name, applied_at) VALUES (?, ?)`,
				m.Name, encodeTime(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}
	return nil
}

func (s *SQLite) WithTx(ctx context.Context, fn func(tx services.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&SQLite{db: s.db, q: tx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Menu items

const sqliteMenuColumns = `id, slug, name, default_price, priority, is_active, description, created_at, updated_at`

func scanSQLiteMenuItem(row rowScanner) (*models.MenuItem, error) {
	var (
		m                    models.MenuItem
		description          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&m.ID, &m.Slug, &m.Name, &m.DefaultPrice, &m.Priority, &m.IsActive,
		&description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	m.Description = nullableString(description)
	var err error
	if m.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLite) ListMenuItems(ctx context.Context, activeOnly bool) ([]models.MenuItem, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+sqliteMenuColumns+` FROM menu_items
		WHERE (? = 0 OR is_active = 1)
		ORDER BY id ASC`,
		activeOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		m, err := scanSQLiteMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (s *SQLite) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return scanSQLiteMenuItem(s.q.QueryRowContext(ctx, `SELECT `+sqliteMenuColumns+` FROM menu_items WHERE id = ?`, id))
}

func (s *SQLite) GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error) {
	return scanSQLiteMenuItem(s.q.QueryRowContext(ctx, `SELECT `+sqliteMenuColumns+` FROM menu_items WHERE slug = ?`, slug))
}

func (s *SQLite) InsertMenuItem(ctx context.Context, m *models.MenuItem) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO menu_items (slug, name, default_price, priority, is_active, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Slug, m.Name, m.DefaultPrice, m.Priority, m.IsActive, m.Description,
		encodeTime(m.CreatedAt), encodeTime(m.UpdatedAt),
	)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) UpdateMenuItem(ctx context.Context, m *models.MenuItem) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE menu_items SET
			slug = ?, name = ?, default_price = ?, priority = ?,
			is_active = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		m.Slug, m.Name, m.DefaultPrice, m.Priority, m.IsActive, m.Description, encodeTime(m.UpdatedAt), m.ID,
	)
	return sqlAffectedOne(res, err)
}

func (s *SQLite) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	return sqlAffectedOne(res, err)
}

func (s *SQLite) CountMenuItems(ctx context.Context) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&n)
	return n, err
}

func (s *SQLite) CountOrdersForMenuItem(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE menu_item_id = ?`, slug).Scan(&n)
	return n, err
}

// Orders

const sqliteOrderColumns = `id, customer_name, menu_item_id, menu_item_name, quantity, price, note,
	order_date, is_paid, created_at, updated_at`

func scanSQLiteOrder(row rowScanner) (*models.Order, error) {
	var (
		o                               models.Order
		note                            sql.NullString
		orderDate, createdAt, updatedAt string
	)
	if err := row.Scan(&o.ID, &o.CustomerName, &o.MenuItemID, &o.MenuItemName, &o.Quantity, &o.Price,
		&note, &orderDate, &o.IsPaid, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	o.Note = nullableString(note)
	var err error
	if o.OrderDate, err = decodeTime(orderDate); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *SQLite) listOrders(ctx context.Context, orderBy string) ([]models.Order, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+sqliteOrderColumns+` FROM orders ORDER BY `+orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *SQLite) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.listOrders(ctx, `order_date DESC, id DESC`)
}

func (s *SQLite) ListOrdersByMenu(ctx context.Context) ([]models.Order, error) {
	return s.listOrders(ctx, `menu_item_name ASC, order_date ASC, id ASC`)
}

func (s *SQLite) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanSQLiteOrder(s.q.QueryRowContext(ctx, `SELECT `+sqliteOrderColumns+` FROM orders WHERE id = ?`, id))
}

func (s *SQLite) InsertOrder(ctx context.Context, o *models.Order) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO orders (
			customer_name, menu_item_id, menu_item_name, quantity, price, note,
			order_date, is_paid, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.CustomerName, o.MenuItemID, o.MenuItemName, o.Quantity, o.Price, o.Note,
		encodeTime(o.OrderDate), o.IsPaid, encodeTime(o.CreatedAt), encodeTime(o.UpdatedAt),
	)
	if err != nil {
		return err
	}
	o.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) UpdateOrder(ctx context.Context, o *models.Order) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE orders SET
			customer_name = ?, menu_item_id = ?, menu_item_name = ?, quantity = ?,
			price = ?, note = ?, order_date = ?, is_paid = ?, updated_at = ?
		WHERE id = ?`,
		o.CustomerName, o.MenuItemID, o.MenuItemName, o.Quantity,
		o.Price, o.Note, encodeTime(o.OrderDate), o.IsPaid, encodeTime(o.UpdatedAt), o.ID,
	)
	return sqlAffectedOne(res, err)
}

func (s *SQLite) DeleteOrder(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return sqlAffectedOne(res, err)
}

func (s *SQLite) SetPaidBetween(ctx context.Context, start, end time.Time, paid bool, now time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE orders SET is_paid = ?, updated_at = ?
		WHERE order_date >= ? AND order_date <= ?`,
		paid, encodeTime(now), encodeTime(start), encodeTime(end),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) Summary(ctx context.Context) (*models.Summary, error) {
	var sum models.Summary
	err := s.q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_paid = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(quantity), 0)
		FROM orders`,
	).Scan(&sum.TotalOrders, &sum.UnpaidOrders, &sum.TotalQuantity)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT
			menu_item_id,
			menu_item_name,
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(CASE WHEN is_paid = 0 THEN quantity ELSE 0 END), 0)
		FROM orders
		GROUP BY menu_item_id, menu_item_name
		ORDER BY menu_item_name, menu_item_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum.MenuBreakdown = []models.MenuSummary{}
	for rows.Next() {
		var m models.MenuSummary
		if err := rows.Scan(&m.MenuItemID, &m.MenuItemName, &m.TotalQuantity, &m.UnpaidQuantity); err != nil {
			return nil, err
		}
		sum.MenuBreakdown = append(sum.MenuBreakdown, m)
	}
	return &sum, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func sqlAffectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return services.ErrNotFound
	}
	return nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"happy-sandwich/models"
	"happy-sandwich/services"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the PostgreSQL store. Inside WithTx the same type wraps the open pgx.Tx.
type Postgres struct {
	pool *pgxpool.Pool
	q    pgQuerier
	tx   pgx.Tx
}

var _ services.Store = (*Postgres)(nil)

func OpenPostgres(ctx context.Context, url string, log *slog.Logger) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	var pool *pgxpool.Pool
	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				break
			}
			pool.Close()
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			log.Warn("database connection failed, retrying", slog.Duration("wait", wait), slog.Any("error", err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", maxRetries, err)
	}

	p := &Postgres{pool: pool, q: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	migrations, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	for _, m := range migrations {
		err := p.WithTx(ctx, func(tx services.Store) error {
			q := tx.(*Postgres).q
			var applied bool
			if err := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE migration_name = $1)`, m.Name,
			).Scan(&applied); err != nil {
				return err
			}
			if applied {
				return nil
			}
			if _, err := q.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := q.Exec(ctx,
				`INSERT INTO schema_migrations (migration_name, applied_at) VALUES ($1, $2)`,
				m.Name, encodeTime(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}
	return nil
}

func (p *Postgres) WithTx(ctx context.Context, fn func(tx services.Store) error) error {
	if p.tx != nil {
		return fn(p)
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Postgres{pool: p.pool, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	if p.pool != nil && p.tx == nil {
		p.pool.Close()
	}
	return nil
}

// Menu items

const pgMenuColumns = `id, slug, name, default_price, priority, is_active, description, created_at, updated_at`

func scanPgMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var m models.MenuItem
	if err := row.Scan(&m.ID, &m.Slug, &m.Name, &m.DefaultPrice, &m.Priority, &m.IsActive,
		&m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func (p *Postgres) ListMenuItems(ctx context.Context, activeOnly bool) ([]models.MenuItem, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+pgMenuColumns+` FROM menu_items
		WHERE ($1 = false OR is_active)
		ORDER BY id ASC`,
		activeOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		m, err := scanPgMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (p *Postgres) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return scanPgMenuItem(p.q.QueryRow(ctx, `SELECT `+pgMenuColumns+` FROM menu_items WHERE id = $1`, id))
}

func (p *Postgres) GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error) {
	return scanPgMenuItem(p.q.QueryRow(ctx, `SELECT `+pgMenuColumns+` FROM menu_items WHERE slug = $1`, slug))
}

func (p *Postgres) InsertMenuItem(ctx context.Context, m *models.MenuItem) error {
	return p.q.QueryRow(ctx, `
		INSERT INTO menu_items (slug, name, default_price, priority, is_active, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		m.Slug, m.Name, m.DefaultPrice, m.Priority, m.IsActive, m.Description, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (p *Postgres) UpdateMenuItem(ctx context.Context, m *models.MenuItem) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE menu_items SET
			slug = $1, name = $2, default_price = $3, priority = $4,
			is_active = $5, description = $6, updated_at = $7
		WHERE id = $8`,
		m.Slug, m.Name, m.DefaultPrice, m.Priority, m.IsActive, m.Description, m.UpdatedAt, m.ID,
	)
	return affectedOne(tag, err)
}

func (p *Postgres) DeleteMenuItem(ctx context.Context, id int64) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return affectedOne(tag, err)
}

func (p *Postgres) CountMenuItems(ctx context.Context) (int64, error) {
	var n int64
	err := p.q.QueryRow(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&n)
	return n, err
}

func (p *Postgres) CountOrdersForMenuItem(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := p.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE menu_item_id = $1`, slug).Scan(&n)
	return n, err
}

// Orders

const pgOrderColumns = `id, customer_name, menu_item_id, menu_item_name, quantity, price, note,
	order_date, is_paid, created_at, updated_at`

func scanPgOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(&o.ID, &o.CustomerName, &o.MenuItemID, &o.MenuItemName, &o.Quantity, &o.Price,
		&o.Note, &o.OrderDate, &o.IsPaid, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	o.OrderDate = o.OrderDate.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

func (p *Postgres) listOrders(ctx context.Context, orderBy string) ([]models.Order, error) {
	rows, err := p.q.Query(ctx, `SELECT `+pgOrderColumns+` FROM orders ORDER BY `+orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanPgOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (p *Postgres) ListOrders(ctx context.Context) ([]models.Order, error) {
	return p.listOrders(ctx, `order_date DESC, id DESC`)
}

func (p *Postgres) ListOrdersByMenu(ctx context.Context) ([]models.Order, error) {
	return p.listOrders(ctx, `menu_item_name ASC, order_date ASC, id ASC`)
}

func (p *Postgres) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanPgOrder(p.q.QueryRow(ctx, `SELECT `+pgOrderColumns+` FROM orders WHERE id = $1`, id))
}

func (p *Postgres) InsertOrder(ctx context.Context, o *models.Order) error {
	return p.q.QueryRow(ctx, `
		INSERT INTO orders (
			customer_name, menu_item_id, menu_item_name, quantity, price, note,
			order_date, is_paid, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		o.CustomerName, o.MenuItemID, o.MenuItemName, o.Quantity, o.Price, o.Note,
		o.OrderDate, o.IsPaid, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
}

func (p *Postgres) UpdateOrder(ctx context.Context, o *models.Order) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE orders SET
			customer_name = $1, menu_item_id = $2, menu_item_name = $3, quantity = $4,
			price = $5, note = $6, order_date = $7, is_paid = $8, updated_at = $9
		WHERE id = $10`,
		o.CustomerName, o.MenuItemID, o.MenuItemName, o.Quantity,
		o.Price, o.Note, o.OrderDate, o.IsPaid, o.UpdatedAt, o.ID,
	)
	return affectedOne(tag, err)
}

func (p *Postgres) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := p.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return affectedOne(tag, err)
}

func (p *Postgres) SetPaidBetween(ctx context.Context, start, end time.Time, paid bool, now time.Time) (int64, error) {
	tag, err := p.q.Exec(ctx, `
		UPDATE orders SET is_paid = $1, updated_at = $2
		WHERE order_date >= $3 AND order_date <= $4`,
		paid, now, start, end,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Summary(ctx context.Context) (*models.Summary, error) {
	var s models.Summary
	err := p.q.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_paid),
			COALESCE(SUM(quantity), 0)
		FROM orders`,
	).Scan(&s.TotalOrders, &s.UnpaidOrders, &s.TotalQuantity)
	if err != nil {
		return nil, err
	}

	rows, err := p.q.Query(ctx, `
		SELECT
			menu_item_id,
			menu_item_name,
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(quantity) FILTER (WHERE NOT is_paid), 0)
		FROM orders
		GROUP BY menu_item_id, menu_item_name
		ORDER BY menu_item_name, menu_item_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.MenuBreakdown = []models.MenuSummary{}
	for rows.Next() {
		var m models.MenuSummary
		if err := rows.Scan(&m.MenuItemID, &m.MenuItemName, &m.TotalQuantity, &m.UnpaidQuantity); err != nil {
			return nil, err
		}
		s.MenuBreakdown = append(s.MenuBreakdown, m)
	}
	return &s, rows.Err()
}

func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrNotFound
	}
	return nil
}

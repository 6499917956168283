package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

const pgUniqueViolation = "23505"

// pgxPool is the subset of pgxpool.Pool the storage relies on. Every order
// mutation is a single statement, so no transaction API is required.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type reviewerRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Reviewers() repository.ReviewerRepository {
	return &reviewerRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            order_number TEXT UNIQUE NOT NULL,
            buyer_email TEXT NOT NULL,
            buyer_name TEXT NOT NULL DEFAULT '',
            plan_ref TEXT NOT NULL,
            price_paid NUMERIC(10,2) NOT NULL,
            currency TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            status TEXT NOT NULL,
            receipt_ref TEXT NOT NULL DEFAULT '',
            access_token TEXT UNIQUE NOT NULL,
            download_count INTEGER NOT NULL DEFAULT 0,
            max_downloads INTEGER NOT NULL,
            access_expires_at TIMESTAMPTZ,
            verified_at TIMESTAMPTZ,
            verified_by TEXT,
            admin_comment TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS reviewers (
            login TEXT PRIMARY KEY,
            api_key_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_email, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, order_number, buyer_email, buyer_name, plan_ref, price_paid::text, currency,
       payment_method, status, receipt_ref, access_token, download_count, max_downloads,
       access_expires_at, verified_at, verified_by, admin_comment, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		price  string
		method string
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.BuyerEmail, &o.BuyerName, &o.PlanRef, &price, &o.Currency,
		&method, &status, &o.ReceiptRef, &o.AccessToken, &o.DownloadCount, &o.MaxDownloads,
		&o.AccessExpiresAt, &o.VerifiedAt, &o.VerifiedBy, &o.AdminComment, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.PricePaid, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	if o.Status, err = model.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	if o.PaymentMethod, err = model.ParsePaymentMethod(method); err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, params repository.CreateOrderParams) (*model.Order, error) {
	const query = `INSERT INTO orders (order_number, buyer_email, buyer_name, plan_ref, price_paid,
                         currency, payment_method, status, receipt_ref, access_token, max_downloads)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                   RETURNING ` + orderColumns
	row := r.storage.pool.QueryRow(ctx, query,
		params.Number, params.BuyerEmail, params.BuyerName, params.PlanRef,
		params.PricePaid.StringFixed(2), params.Currency, string(params.PaymentMethod),
		string(model.OrderStatusPending), params.ReceiptRef, params.AccessToken, params.MaxDownloads,
	)
	order, err := scanOrder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE order_number=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByToken(ctx context.Context, token string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE access_token=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTokenNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByEmail(ctx context.Context, email string) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE buyer_email=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE status=$1 ORDER BY created_at LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// CloseFromPending applies the single admissible review transition. The
// WHERE clause carries the guard so that two concurrent reviews of the same
// order resolve to exactly one winner.
func (r *orderRepository) CloseFromPending(ctx context.Context, id int64, to model.OrderStatus, reviewer, comment string, accessExpiresAt *time.Time) (*model.Order, error) {
	switch to {
	case model.OrderStatusCompleted, model.OrderStatusRejected, model.OrderStatusFailed:
	default:
		return nil, domainErrors.ErrInvalidTransition
	}

	const query = `UPDATE orders
                   SET status=$2, verified_at=NOW(), verified_by=$3, admin_comment=$4,
                       access_expires_at=$5, updated_at=NOW()
                   WHERE id=$1 AND status='PENDING'
                   RETURNING ` + orderColumns
	row := r.storage.pool.QueryRow(ctx, query, id, string(to), reviewer, comment, accessExpiresAt)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyTransitionDenial(ctx, id, model.OrderStatusPending)
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) RefundCompleted(ctx context.Context, id int64, reviewer, comment string) (*model.Order, error) {
	const query = `UPDATE orders
                   SET status='REFUNDED',
                       admin_comment = CASE WHEN admin_comment = '' THEN $2
                                            ELSE admin_comment || E'\n' || $2 END,
                       updated_at=NOW()
                   WHERE id=$1 AND status='COMPLETED'
                   RETURNING ` + orderColumns
	annotated := fmt.Sprintf("refunded by %s: %s", reviewer, comment)
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id, annotated))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyTransitionDenial(ctx, id, model.OrderStatusCompleted)
		}
		return nil, err
	}
	return order, nil
}

// classifyTransitionDenial resolves a zero-row guarded update into NotFound
// or InvalidTransition. A row still sitting in the required state means the
// atomicity guarantee itself broke, which is fatal-class.
func (r *orderRepository) classifyTransitionDenial(ctx context.Context, id int64, required model.OrderStatus) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	if existing.Status == required {
		r.storage.logger.Error("guarded update affected no rows on an eligible order",
			slog.Int64("order_id", id),
			slog.String("status", existing.Status.String()),
		)
		return fmt.Errorf("storage integrity violation on order %d", id)
	}
	return domainErrors.ErrInvalidTransition
}

// ClaimDownload is the download gate: status, expiration and quota checks
// plus the counter increment are one conditional update, never a
// read-then-write.
func (r *orderRepository) ClaimDownload(ctx context.Context, token string) (*model.Order, error) {
	const query = `UPDATE orders
                   SET download_count = download_count + 1, updated_at=NOW()
                   WHERE access_token=$1
                     AND status='COMPLETED'
                     AND (access_expires_at IS NULL OR access_expires_at > NOW())
                     AND download_count < max_downloads
                   RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyDownloadDenial(ctx, token)
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) classifyDownloadDenial(ctx context.Context, token string) error {
	order, err := r.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	switch {
	case order.Status != model.OrderStatusCompleted:
		return domainErrors.ErrNotCompleted
	case order.AccessExpired(time.Now()):
		return domainErrors.ErrAccessExpired
	case order.DownloadCount >= order.MaxDownloads:
		return domainErrors.ErrDownloadLimit
	}
	r.storage.logger.Error("download gate affected no rows on an eligible order",
		slog.Int64("order_id", order.ID),
	)
	return fmt.Errorf("storage integrity violation on order %d", order.ID)
}

func (r *orderRepository) ReleaseDownload(ctx context.Context, id int64) error {
	const query = `UPDATE orders
                   SET download_count = download_count - 1, updated_at=NOW()
                   WHERE id=$1 AND download_count > 0`
	_, err := r.storage.pool.Exec(ctx, query, id)
	return err
}

func (r *orderRepository) ResetQuota(ctx context.Context, id int64) (*model.Order, error) {
	const query = `UPDATE orders SET download_count = 0, updated_at=NOW()
                   WHERE id=$1
                   RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) SelectStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE status='PENDING' AND created_at < $1
                   ORDER BY created_at
                   LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// --- ReviewerRepository implementation ---

func (r *reviewerRepository) Upsert(ctx context.Context, login, apiKeyHash string) error {
	const query = `INSERT INTO reviewers (login, api_key_hash) VALUES ($1, $2)
                   ON CONFLICT (login) DO UPDATE SET api_key_hash = EXCLUDED.api_key_hash`
	_, err := r.storage.pool.Exec(ctx, query, login, apiKeyHash)
	return err
}

func (r *reviewerRepository) GetByLogin(ctx context.Context, login string) (*model.Reviewer, error) {
	const query = `SELECT login, api_key_hash, created_at FROM reviewers WHERE login=$1`
	var rev model.Reviewer
	err := r.storage.pool.QueryRow(ctx, query, login).Scan(&rev.Login, &rev.APIKeyHash, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

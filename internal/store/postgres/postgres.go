package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/samnang-john/pos-base-back/internal/domain"
	"github.com/samnang-john/pos-base-back/internal/store"
	"github.com/samnang-john/pos-base-back/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateAttribute(ctx context.Context, attribute domain.Attribute) (*domain.Attribute, error) {
	attribute.Name = strings.TrimSpace(attribute.Name)
	if attribute.Name == "" || !validAttributeKind(attribute.Kind) {
		return nil, store.ErrInvalidInput
	}
	if attribute.ID == "" {
		attribute.ID = xid.New("attr")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attributes (id, kind, name, description, created_at)
		VALUES ($1,$2,$3,$4,now())
	`, attribute.ID, attribute.Kind, attribute.Name, attribute.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := attribute
	return &created, nil
}

func (s *Store) ListAttributes(ctx context.Context, kind string) ([]domain.Attribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, description
		FROM attributes
		WHERE ($1 = '' OR kind = $1)
		ORDER BY kind, name
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attributes := make([]domain.Attribute, 0, 32)
	for rows.Next() {
		var a domain.Attribute
		if err := rows.Scan(&a.ID, &a.Kind, &a.Name, &a.Description); err != nil {
			return nil, err
		}
		attributes = append(attributes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attributes, nil
}

func (s *Store) GetAttributesByIDs(ctx context.Context, ids []string) (map[string]domain.Attribute, error) {
	result := make(map[string]domain.Attribute, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, description
		FROM attributes
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Attribute
		if err := rows.Scan(&a.ID, &a.Kind, &a.Name, &a.Description); err != nil {
			return nil, err
		}
		result[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateGood(ctx context.Context, good domain.Good) (*domain.Good, error) {
	if good.PriceCents < 1 || good.CostCents < 0 || good.QtyOnHand < 0 || good.HandlingFeeCents < 0 {
		return nil, store.ErrInvalidInput
	}
	if good.ID == "" {
		good.ID = xid.New("good")
	}
	if good.CreatedAt.IsZero() {
		good.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goods (
			id, wood_type_id, end_grain_id, length_id, cost_cents, price_cents,
			qty_on_hand, handling_fee_cents, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
	`, good.ID, good.WoodTypeID, good.EndGrainID, good.LengthID, good.CostCents, good.PriceCents, good.QtyOnHand, good.HandlingFeeCents, good.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidInput
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := good
	return &created, nil
}

func (s *Store) GetGoodByID(ctx context.Context, id string) (*domain.Good, error) {
	var good domain.Good
	err := s.db.QueryRowContext(ctx, `
		SELECT id, wood_type_id, end_grain_id, length_id, cost_cents, price_cents,
			qty_on_hand, handling_fee_cents, created_at
		FROM goods
		WHERE id = $1
	`, id).Scan(&good.ID, &good.WoodTypeID, &good.EndGrainID, &good.LengthID, &good.CostCents, &good.PriceCents, &good.QtyOnHand, &good.HandlingFeeCents, &good.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	good.CreatedAt = good.CreatedAt.UTC()
	return &good, nil
}

func (s *Store) UpdateGood(ctx context.Context, id string, update domain.GoodUpdateRequest) (*domain.Good, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE goods
		SET wood_type_id = COALESCE($2, wood_type_id),
			end_grain_id = COALESCE($3, end_grain_id),
			length_id = COALESCE($4, length_id),
			cost_cents = COALESCE($5, cost_cents),
			price_cents = COALESCE($6, price_cents),
			handling_fee_cents = COALESCE($7, handling_fee_cents),
			updated_at = now()
		WHERE id = $1
	`, id, update.WoodTypeID, update.EndGrainID, update.LengthID, update.CostCents, update.PriceCents, update.HandlingFeeCents)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetGoodByID(ctx, id)
}

func (s *Store) ListGoods(ctx context.Context, page int, size int) ([]domain.Good, int, error) {
	page, size = normalizePage(page, size)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goods`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wood_type_id, end_grain_id, length_id, cost_cents, price_cents,
			qty_on_hand, handling_fee_cents, created_at
		FROM goods
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	goods := make([]domain.Good, 0, size)
	for rows.Next() {
		var good domain.Good
		if err := rows.Scan(&good.ID, &good.WoodTypeID, &good.EndGrainID, &good.LengthID, &good.CostCents, &good.PriceCents, &good.QtyOnHand, &good.HandlingFeeCents, &good.CreatedAt); err != nil {
			return nil, 0, err
		}
		good.CreatedAt = good.CreatedAt.UTC()
		goods = append(goods, good)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return goods, total, nil
}

func (s *Store) GetGoodsByIDs(ctx context.Context, ids []string) (map[string]domain.Good, error) {
	result := make(map[string]domain.Good, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wood_type_id, end_grain_id, length_id, cost_cents, price_cents,
			qty_on_hand, handling_fee_cents, created_at
		FROM goods
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var good domain.Good
		if err := rows.Scan(&good.ID, &good.WoodTypeID, &good.EndGrainID, &good.LengthID, &good.CostCents, &good.PriceCents, &good.QtyOnHand, &good.HandlingFeeCents, &good.CreatedAt); err != nil {
			return nil, err
		}
		good.CreatedAt = good.CreatedAt.UTC()
		result[good.ID] = good
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustGoodQuantity applies delta with a guarded single-statement UPDATE so
// the check and the write cannot interleave with a concurrent adjuster. The
// RETURNING clause reads the resulting quantity plus price and cost in the
// same statement.
func (s *Store) AdjustGoodQuantity(ctx context.Context, goodID string, delta int, minResulting int) (*domain.StockAdjustment, error) {
	var after int
	var priceCents, costCents int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE goods
		SET qty_on_hand = qty_on_hand + $2, updated_at = now()
		WHERE id = $1 AND qty_on_hand + $2 >= $3
		RETURNING qty_on_hand, price_cents, cost_cents
	`, goodID, delta, minResulting).Scan(&after, &priceCents, &costCents)
	if err == nil {
		return &domain.StockAdjustment{
			GoodID:     goodID,
			Delta:      delta,
			BeforeQty:  after - delta,
			AfterQty:   after,
			PriceCents: priceCents,
			CostCents:  costCents,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// No row matched: either the good is unknown or the guard failed.
	good, lookupErr := s.GetGoodByID(ctx, goodID)
	if lookupErr != nil {
		return nil, lookupErr
	}
	requested := delta
	if requested < 0 {
		requested = -requested
	}
	return nil, &store.InsufficientStockError{
		GoodID:    goodID,
		Requested: requested,
		Available: good.QtyOnHand,
	}
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order, lines []domain.OrderLine, ledger []domain.LedgerEntry) (*domain.Order, error) {
	if order.ID == "" || order.OrderNumber == "" || len(lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, customer, subtotal_cents, discount_cents, tax_cents,
			grand_total_cents, payment_status, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, order.ID, order.OrderNumber, nullIfEmpty(order.Customer), order.SubtotalCents, order.DiscountCents, order.TaxCents, order.GrandTotalCents, order.PaymentStatus, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, good_id, qty, unit_price_cents, unit_cost_cents,
				discount_cents, total_cents, created_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, line.ID, order.ID, line.GoodID, line.Qty, line.UnitPriceCents, line.UnitCostCents, line.DiscountCents, line.TotalCents, order.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := insertLedger(ctx, tx, ledger, order.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) ListOrders(ctx context.Context, from *time.Time, to *time.Time, page int, size int) ([]domain.Order, int, error) {
	page, size = normalizePage(page, size)

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at <= $2)
	`, nullTime(from), nullTime(to)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, COALESCE(customer,''), subtotal_cents, discount_cents,
			tax_cents, grand_total_cents, payment_status, created_at
		FROM orders
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, nullTime(from), nullTime(to), size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, size)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Customer, &o.SubtotalCents, &o.DiscountCents, &o.TaxCents, &o.GrandTotalCents, &o.PaymentStatus, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, COALESCE(customer,''), subtotal_cents, discount_cents,
			tax_cents, grand_total_cents, payment_status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.OrderNumber, &o.Customer, &o.SubtotalCents, &o.DiscountCents, &o.TaxCents, &o.GrandTotalCents, &o.PaymentStatus, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}

func (s *Store) GetOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, good_id, qty, unit_price_cents, unit_cost_cents,
			discount_cents, total_cents, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.GoodID, &line.Qty, &line.UnitPriceCents, &line.UnitCostCents, &line.DiscountCents, &line.TotalCents, &line.CreatedAt); err != nil {
			return nil, err
		}
		line.CreatedAt = line.CreatedAt.UTC()
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		if _, err := s.GetOrderByID(ctx, orderID); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func (s *Store) CreateStockSync(ctx context.Context, sync domain.StockSync, lines []domain.StockSyncLine, ledger []domain.LedgerEntry) (*domain.StockSync, error) {
	if sync.ID == "" || sync.SyncNumber == "" || len(lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if sync.CreatedAt.IsZero() {
		sync.CreatedAt = time.Now().UTC()
	}
	sync.TotalItems = len(lines)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_syncs (id, sync_number, note, total_items, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, sync.ID, sync.SyncNumber, nullIfEmpty(sync.Note), sync.TotalItems, nullIfEmpty(sync.CreatedBy), sync.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stock_sync_lines (id, sync_id, good_id, qty, before_qty, after_qty)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, line.ID, sync.ID, line.GoodID, line.Qty, line.BeforeQty, line.AfterQty)
		if err != nil {
			return nil, err
		}
	}

	if err := insertLedger(ctx, tx, ledger, sync.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := sync
	return &created, nil
}

func (s *Store) ListStockSyncs(ctx context.Context, from *time.Time, to *time.Time, page int, size int) ([]domain.StockSync, int, error) {
	page, size = normalizePage(page, size)

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM stock_syncs
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at <= $2)
	`, nullTime(from), nullTime(to)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sync_number, COALESCE(note,''), total_items, COALESCE(created_by,''), created_at
		FROM stock_syncs
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, nullTime(from), nullTime(to), size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	syncs := make([]domain.StockSync, 0, size)
	for rows.Next() {
		var sync domain.StockSync
		if err := rows.Scan(&sync.ID, &sync.SyncNumber, &sync.Note, &sync.TotalItems, &sync.CreatedBy, &sync.CreatedAt); err != nil {
			return nil, 0, err
		}
		sync.CreatedAt = sync.CreatedAt.UTC()
		syncs = append(syncs, sync)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return syncs, total, nil
}

func (s *Store) GetStockSyncByID(ctx context.Context, id string) (*domain.StockSync, error) {
	var sync domain.StockSync
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sync_number, COALESCE(note,''), total_items, COALESCE(created_by,''), created_at
		FROM stock_syncs
		WHERE id = $1
	`, id).Scan(&sync.ID, &sync.SyncNumber, &sync.Note, &sync.TotalItems, &sync.CreatedBy, &sync.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sync.CreatedAt = sync.CreatedAt.UTC()
	return &sync, nil
}

func (s *Store) GetStockSyncLines(ctx context.Context, syncID string) ([]domain.StockSyncLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sync_id, good_id, qty, before_qty, after_qty
		FROM stock_sync_lines
		WHERE sync_id = $1
		ORDER BY id ASC
	`, syncID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.StockSyncLine, 0, 8)
	for rows.Next() {
		var line domain.StockSyncLine
		if err := rows.Scan(&line.ID, &line.SyncID, &line.GoodID, &line.Qty, &line.BeforeQty, &line.AfterQty); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		if _, err := s.GetStockSyncByID(ctx, syncID); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, goodID string, limit int) ([]domain.LedgerEntry, error) {
	if limit < 1 {
		limit = 100
	}
	if _, err := s.GetGoodByID(ctx, goodID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, good_id, delta, before_qty, after_qty, ref_type, ref_id, created_at
		FROM stock_ledger
		WHERE good_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, goodID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.GoodID, &entry.Delta, &entry.BeforeQty, &entry.AfterQty, &entry.RefType, &entry.RefID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CountGoodsAndStock(ctx context.Context) (int, int, error) {
	var products, stockQty int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(qty_on_hand), 0)::int
		FROM goods
	`).Scan(&products, &stockQty)
	if err != nil {
		return 0, 0, err
	}
	return products, stockQty, nil
}

func (s *Store) OrderIncome(ctx context.Context, from time.Time, to time.Time) (int, int64, error) {
	var count int
	var income int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(grand_total_cents), 0)::bigint
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2
	`, from, to).Scan(&count, &income)
	if err != nil {
		return 0, 0, err
	}
	return count, income, nil
}

func (s *Store) OrderLineExpense(ctx context.Context, from time.Time, to time.Time) (int64, error) {
	var expense int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ol.unit_cost_cents * ol.qty), 0)::bigint
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		WHERE o.created_at >= $1 AND o.created_at <= $2
	`, from, to).Scan(&expense)
	if err != nil {
		return 0, err
	}
	return expense, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "staff"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,true,$4)
	`, username, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// insertLedger writes ledger rows inside the caller's transaction so entries
// commit together with their parent header or not at all.
func insertLedger(ctx context.Context, tx *sql.Tx, ledger []domain.LedgerEntry, at time.Time) error {
	for _, entry := range ledger {
		if entry.ID == "" {
			entry.ID = xid.New("ledger")
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = at
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stock_ledger (id, good_id, delta, before_qty, after_qty, ref_type, ref_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, entry.ID, entry.GoodID, entry.Delta, entry.BeforeQty, entry.AfterQty, entry.RefType, entry.RefID, entry.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func validAttributeKind(kind string) bool {
	switch kind {
	case domain.AttributeKindWoodType, domain.AttributeKindEndGrain, domain.AttributeKindLength:
		return true
	}
	return false
}

func normalizePage(page int, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

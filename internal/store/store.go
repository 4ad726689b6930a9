package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samnang-john/pos-base-back/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
)

// InsufficientStockError reports a failed conditional quantity update. It
// matches errors.Is(err, ErrInsufficientStock) so callers can branch on the
// sentinel while still reading the offending good and quantities.
type InsufficientStockError struct {
	GoodID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for good %s: requested %d, available %d", e.GoodID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type Repository interface {
	CreateAttribute(ctx context.Context, attribute domain.Attribute) (*domain.Attribute, error)
	ListAttributes(ctx context.Context, kind string) ([]domain.Attribute, error)
	GetAttributesByIDs(ctx context.Context, ids []string) (map[string]domain.Attribute, error)
	CreateGood(ctx context.Context, good domain.Good) (*domain.Good, error)
	GetGoodByID(ctx context.Context, id string) (*domain.Good, error)
	UpdateGood(ctx context.Context, id string, update domain.GoodUpdateRequest) (*domain.Good, error)
	ListGoods(ctx context.Context, page int, size int) ([]domain.Good, int, error)
	GetGoodsByIDs(ctx context.Context, ids []string) (map[string]domain.Good, error)
	AdjustGoodQuantity(ctx context.Context, goodID string, delta int, minResulting int) (*domain.StockAdjustment, error)
	CreateOrder(ctx context.Context, order domain.Order, lines []domain.OrderLine, ledger []domain.LedgerEntry) (*domain.Order, error)
	ListOrders(ctx context.Context, from *time.Time, to *time.Time, page int, size int) ([]domain.Order, int, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error)
	CreateStockSync(ctx context.Context, sync domain.StockSync, lines []domain.StockSyncLine, ledger []domain.LedgerEntry) (*domain.StockSync, error)
	ListStockSyncs(ctx context.Context, from *time.Time, to *time.Time, page int, size int) ([]domain.StockSync, int, error)
	GetStockSyncByID(ctx context.Context, id string) (*domain.StockSync, error)
	GetStockSyncLines(ctx context.Context, syncID string) ([]domain.StockSyncLine, error)
	ListLedgerEntries(ctx context.Context, goodID string, limit int) ([]domain.LedgerEntry, error)
	CountGoodsAndStock(ctx context.Context) (int, int, error)
	OrderIncome(ctx context.Context, from time.Time, to time.Time) (int, int64, error)
	OrderLineExpense(ctx context.Context, from time.Time, to time.Time) (int64, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

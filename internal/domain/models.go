package domain

import "time"

// Attribute kinds for the wood catalogue. Every good references exactly one
// attribute of each kind.
const (
	AttributeKindWoodType = "wood_type"
	AttributeKindEndGrain = "end_grain"
	AttributeKindLength   = "length"
)

type Attribute struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type AttributeCreateRequest struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Good is a stocked wood product. QtyOnHand is a materialized view over the
// stock ledger: it is only ever mutated through the store's atomic
// conditional-adjust primitive, never by direct overwrite.
type Good struct {
	ID               string    `json:"id"`
	WoodTypeID       string    `json:"wood_type_id"`
	EndGrainID       string    `json:"end_grain_id"`
	LengthID         string    `json:"length_id"`
	CostCents        int64     `json:"cost_cents"`
	PriceCents       int64     `json:"price_cents"`
	QtyOnHand        int       `json:"qty_on_hand"`
	HandlingFeeCents int64     `json:"handling_fee_cents,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type GoodCreateRequest struct {
	WoodTypeID       string `json:"wood_type_id"`
	EndGrainID       string `json:"end_grain_id"`
	LengthID         string `json:"length_id"`
	CostCents        int64  `json:"cost_cents"`
	PriceCents       int64  `json:"price_cents"`
	InitialQty       int    `json:"initial_qty"`
	HandlingFeeCents int64  `json:"handling_fee_cents"`
}

// GoodUpdateRequest updates catalogue fields only. Quantity is deliberately
// absent: stock moves exclusively through orders and stock syncs.
type GoodUpdateRequest struct {
	WoodTypeID       *string `json:"wood_type_id,omitempty"`
	EndGrainID       *string `json:"end_grain_id,omitempty"`
	LengthID         *string `json:"length_id,omitempty"`
	CostCents        *int64  `json:"cost_cents,omitempty"`
	PriceCents       *int64  `json:"price_cents,omitempty"`
	HandlingFeeCents *int64  `json:"handling_fee_cents,omitempty"`
}

// GoodView is a good with its categorical attributes resolved to full records.
type GoodView struct {
	Good
	WoodType *Attribute `json:"wood_type,omitempty"`
	EndGrain *Attribute `json:"end_grain,omitempty"`
	Length   *Attribute `json:"length,omitempty"`
}

const (
	PaymentStatusPaid    = "paid"
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
)

// Order is a committed sale. Immutable after creation.
type Order struct {
	ID              string    `json:"id"`
	OrderNumber     string    `json:"order_number"`
	Customer        string    `json:"customer,omitempty"`
	SubtotalCents   int64     `json:"subtotal_cents"`
	DiscountCents   int64     `json:"discount_cents"`
	TaxCents        int64     `json:"tax_cents"`
	GrandTotalCents int64     `json:"grand_total_cents"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
}

// OrderLine snapshots the good's unit price and unit cost at transaction time
// so historical orders stay accurate when catalogue prices change later.
type OrderLine struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	GoodID         string    `json:"good_id"`
	Qty            int       `json:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	UnitCostCents  int64     `json:"unit_cost_cents"`
	DiscountCents  int64     `json:"discount_cents"`
	TotalCents     int64     `json:"total_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

type OrderItemInput struct {
	GoodID        string `json:"good_id"`
	Qty           int    `json:"qty"`
	DiscountCents int64  `json:"discount_cents"`
}

type OrderCreateRequest struct {
	Customer      string           `json:"customer"`
	Items         []OrderItemInput `json:"items"`
	DiscountCents int64            `json:"discount_cents"`
	TaxCents      int64            `json:"tax_cents"`
}

type OrderResponse struct {
	Order Order       `json:"order"`
	Lines []OrderLine `json:"lines"`
}

// OrderLineView is an order line with the referenced good resolved.
type OrderLineView struct {
	OrderLine
	Good *GoodView `json:"good,omitempty"`
}

type OrderDetailResponse struct {
	Order Order           `json:"order"`
	Lines []OrderLineView `json:"lines"`
}

// StockSync is a committed replenishment event.
type StockSync struct {
	ID         string    `json:"id"`
	SyncNumber string    `json:"sync_number"`
	Note       string    `json:"note,omitempty"`
	TotalItems int       `json:"total_items"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StockSyncLine records one replenished good with the quantity observed
// immediately before and after the mutation (after = before + qty).
type StockSyncLine struct {
	ID        string `json:"id"`
	SyncID    string `json:"sync_id"`
	GoodID    string `json:"good_id"`
	Qty       int    `json:"qty"`
	BeforeQty int    `json:"before_qty"`
	AfterQty  int    `json:"after_qty"`
}

type SyncItemInput struct {
	GoodID string `json:"good_id"`
	Qty    int    `json:"qty"`
}

type StockSyncRequest struct {
	Note  string          `json:"note"`
	Items []SyncItemInput `json:"items"`
}

type StockSyncResponse struct {
	Sync  StockSync       `json:"sync"`
	Lines []StockSyncLine `json:"lines"`
}

type StockSyncLineView struct {
	StockSyncLine
	Good *GoodView `json:"good,omitempty"`
}

type StockSyncDetailResponse struct {
	Sync  StockSync           `json:"sync"`
	Lines []StockSyncLineView `json:"lines"`
}

// Ledger reference kinds.
const (
	LedgerRefOrder     = "order"
	LedgerRefStockSync = "stock_sync"
)

// LedgerEntry is one immutable quantity delta. The ledger is the source of
// truth for stock: a good's QtyOnHand must always equal its initial quantity
// plus the signed sum of committed deltas.
type LedgerEntry struct {
	ID        string    `json:"id"`
	GoodID    string    `json:"good_id"`
	Delta     int       `json:"delta"`
	BeforeQty int       `json:"before_qty"`
	AfterQty  int       `json:"after_qty"`
	RefType   string    `json:"ref_type"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StockAdjustment is the result of one atomic conditional quantity update,
// carrying the price/cost read in the same indivisible step.
type StockAdjustment struct {
	GoodID     string
	Delta      int
	BeforeQty  int
	AfterQty   int
	PriceCents int64
	CostCents  int64
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

type StockSyncListResponse struct {
	Items      []StockSync `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

type GoodListResponse struct {
	Items      []GoodView `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ReportOverview is the point-in-time summary for the reporting window
// (start of day through the reporting instant).
type ReportOverview struct {
	TotalProducts     int   `json:"total_products"`
	TotalStockQty     int   `json:"total_stock_qty"`
	OrdersToday       int   `json:"orders_today"`
	IncomeTodayCents  int64 `json:"income_today_cents"`
	ExpenseTodayCents int64 `json:"expense_today_cents"`
	TotalProfitCents  int64 `json:"total_profit_cents"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samnang-john/pos-base-back/internal/cache"
	"github.com/samnang-john/pos-base-back/internal/domain"
	"github.com/samnang-john/pos-base-back/internal/store"
	"github.com/samnang-john/pos-base-back/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, cache.NewNoop(), time.Second), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func TestCreateOrderComputesTotals(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	resp, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Customer:      "Workshop Rivera",
		DiscountCents: 10000,
		TaxCents:      30000,
		Items: []domain.OrderItemInput{
			{GoodID: "good-teak-flat-2m", Qty: 2},
			{GoodID: "good-pine-flat-3m", Qty: 3, DiscountCents: 7000},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// 2*260000 + (3*79000 - 7000) = 520000 + 230000
	if resp.Order.SubtotalCents != 750000 {
		t.Fatalf("expected subtotal 750000, got %d", resp.Order.SubtotalCents)
	}
	if resp.Order.GrandTotalCents != 750000-10000+30000 {
		t.Fatalf("expected grand total 770000, got %d", resp.Order.GrandTotalCents)
	}
	if resp.Order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected default payment status paid, got %s", resp.Order.PaymentStatus)
	}
	if len(resp.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(resp.Lines))
	}
	if resp.Lines[0].UnitPriceCents != 260000 || resp.Lines[0].UnitCostCents != 185000 {
		t.Fatalf("expected price/cost snapshot on line, got %d/%d", resp.Lines[0].UnitPriceCents, resp.Lines[0].UnitCostCents)
	}

	teak, err := repo.GetGoodByID(ctx, "good-teak-flat-2m")
	if err != nil {
		t.Fatalf("get good: %v", err)
	}
	if teak.QtyOnHand != 38 {
		t.Fatalf("expected teak stock 38 after sale, got %d", teak.QtyOnHand)
	}

	entries, err := repo.ListLedgerEntries(ctx, "good-teak-flat-2m", 10)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Delta != -2 || entries[0].BeforeQty != 40 || entries[0].AfterQty != 38 {
		t.Fatalf("unexpected ledger entry %+v", entries[0])
	}
	if entries[0].RefType != domain.LedgerRefOrder || entries[0].RefID != resp.Order.ID {
		t.Fatalf("ledger entry not linked to order: %+v", entries[0])
	}
}

func TestCreateOrderInsufficientStockAbortsAll(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{GoodID: "good-teak-flat-2m", Qty: 5},
			{GoodID: "good-teak-quarter-3m", Qty: 19}, // only 18 on hand
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected typed insufficient stock error, got %T", err)
	}
	if stockErr.GoodID != "good-teak-quarter-3m" || stockErr.Requested != 19 || stockErr.Available != 18 {
		t.Fatalf("unexpected error detail: %+v", stockErr)
	}

	teak, _ := repo.GetGoodByID(ctx, "good-teak-flat-2m")
	if teak.QtyOnHand != 40 {
		t.Fatalf("expected first line compensated back to 40, got %d", teak.QtyOnHand)
	}
	quarter, _ := repo.GetGoodByID(ctx, "good-teak-quarter-3m")
	if quarter.QtyOnHand != 18 {
		t.Fatalf("expected untouched stock 18, got %d", quarter.QtyOnHand)
	}

	list, err := svc.ListOrders(ctx, 1, 10, "", "")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if list.Pagination.TotalItems != 0 {
		t.Fatalf("expected no persisted orders, got %d", list.Pagination.TotalItems)
	}

	for _, goodID := range []string{"good-teak-flat-2m", "good-teak-quarter-3m"} {
		entries, err := repo.ListLedgerEntries(ctx, goodID, 10)
		if err != nil {
			t.Fatalf("list ledger: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected no ledger rows for %s after abort, got %d", goodID, len(entries))
		}
	}
}

// cancelAfterFirstAdjustRepo refuses adjustments once its context is done,
// the way the postgres store does, and cancels the request context right
// after the first line succeeds.
type cancelAfterFirstAdjustRepo struct {
	store.Repository
	cancel  context.CancelFunc
	adjusts int
}

func (r *cancelAfterFirstAdjustRepo) AdjustGoodQuantity(ctx context.Context, goodID string, delta int, minResulting int) (*domain.StockAdjustment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	adj, err := r.Repository.AdjustGoodQuantity(ctx, goodID, delta, minResulting)
	r.adjusts++
	if r.adjusts == 1 {
		r.cancel()
	}
	return adj, err
}

func TestCreateOrderCancelledContextStillCompensates(t *testing.T) {
	mem := memory.NewSeeded()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &cancelAfterFirstAdjustRepo{Repository: mem, cancel: cancel}
	svc := New(repo, cache.NewNoop(), time.Second)

	_, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{GoodID: "good-teak-flat-2m", Qty: 2},
			{GoodID: "good-pine-flat-3m", Qty: 3},
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	// The first line's decrement must have been returned even though the
	// request context is dead.
	teak, _ := mem.GetGoodByID(context.Background(), "good-teak-flat-2m")
	if teak.QtyOnHand != 40 {
		t.Fatalf("expected stock restored to 40 after cancelled request, got %d", teak.QtyOnHand)
	}
	pine, _ := mem.GetGoodByID(context.Background(), "good-pine-flat-3m")
	if pine.QtyOnHand != 120 {
		t.Fatalf("expected untouched pine stock 120, got %d", pine.QtyOnHand)
	}

	list, err := svc.ListOrders(context.Background(), 1, 10, "", "")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if list.Pagination.TotalItems != 0 {
		t.Fatalf("expected no persisted orders, got %d", list.Pagination.TotalItems)
	}
}

func TestCreateOrderUnknownGoodCompensates(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{GoodID: "good-pine-flat-3m", Qty: 4},
			{GoodID: "good-does-not-exist", Qty: 1},
		},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	pine, _ := repo.GetGoodByID(ctx, "good-pine-flat-3m")
	if pine.QtyOnHand != 120 {
		t.Fatalf("expected pine stock restored to 120, got %d", pine.QtyOnHand)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []domain.OrderCreateRequest{
		{},
		{Items: []domain.OrderItemInput{{GoodID: "good-pine-flat-3m", Qty: 0}}},
		{Items: []domain.OrderItemInput{{GoodID: "", Qty: 1}}},
		{Items: []domain.OrderItemInput{{GoodID: "good-pine-flat-3m", Qty: 1}}, DiscountCents: -1},
		{Items: []domain.OrderItemInput{{GoodID: "good-pine-flat-3m", Qty: 1, DiscountCents: -5}}},
	}
	for i, req := range cases {
		if _, err := svc.CreateOrder(ctx, req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestConcurrentOrdersLastUnit(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Drain teak quarter down to a single unit.
	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{{GoodID: "good-teak-quarter-3m", Qty: 17}},
	}); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
				Items: []domain.OrderItemInput{{GoodID: "good-teak-quarter-3m", Qty: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		if !errors.Is(err, store.ErrInsufficientStock) {
			t.Fatalf("expected insufficient stock on loser, got %v", err)
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("expected exactly one winner, got %d success %d failure", succeeded, failed)
	}

	good, _ := repo.GetGoodByID(ctx, "good-teak-quarter-3m")
	if good.QtyOnHand != 0 {
		t.Fatalf("expected stock 0 after last unit sold, got %d", good.QtyOnHand)
	}
}

func TestSyncStockThenOrderRoundTrip(t *testing.T) {
	svc, repo := newTestService()
	ctx := WithActor(context.Background(), domain.Actor{Username: "staff", Role: "staff"})

	syncResp, err := svc.SyncStock(ctx, domain.StockSyncRequest{
		Note: "weekly delivery",
		Items: []domain.SyncItemInput{
			{GoodID: "good-oak-rift-2m", Qty: 5},
		},
	})
	if err != nil {
		t.Fatalf("sync stock: %v", err)
	}
	if syncResp.Sync.CreatedBy != "staff" {
		t.Fatalf("expected created_by staff, got %q", syncResp.Sync.CreatedBy)
	}
	if len(syncResp.Lines) != 1 {
		t.Fatalf("expected 1 sync line, got %d", len(syncResp.Lines))
	}
	line := syncResp.Lines[0]
	if line.BeforeQty != 27 || line.AfterQty != 32 {
		t.Fatalf("expected 27 -> 32, got %d -> %d", line.BeforeQty, line.AfterQty)
	}

	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{{GoodID: "good-oak-rift-2m", Qty: 5}},
	}); err != nil {
		t.Fatalf("order after sync: %v", err)
	}

	good, _ := repo.GetGoodByID(ctx, "good-oak-rift-2m")
	if good.QtyOnHand != 27 {
		t.Fatalf("expected quantity back at 27 after round trip, got %d", good.QtyOnHand)
	}

	entries, err := repo.ListLedgerEntries(ctx, "good-oak-rift-2m", 10)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	// Newest first: the sale, then the sync.
	if entries[0].Delta != -5 || entries[0].BeforeQty != 32 || entries[0].AfterQty != 27 {
		t.Fatalf("unexpected sale entry %+v", entries[0])
	}
	if entries[1].Delta != 5 || entries[1].BeforeQty != 27 || entries[1].AfterQty != 32 {
		t.Fatalf("unexpected sync entry %+v", entries[1])
	}
	if entries[1].RefType != domain.LedgerRefStockSync || entries[1].RefID != syncResp.Sync.ID {
		t.Fatalf("sync entry not linked: %+v", entries[1])
	}
}

func TestSyncStockValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SyncStock(ctx, domain.StockSyncRequest{}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty sync, got %v", err)
	}
	if _, err := svc.SyncStock(ctx, domain.StockSyncRequest{
		Items: []domain.SyncItemInput{{GoodID: "good-pine-flat-3m", Qty: 0}},
	}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero qty, got %v", err)
	}
	if _, err := svc.SyncStock(ctx, domain.StockSyncRequest{
		Items: []domain.SyncItemInput{{GoodID: "good-does-not-exist", Qty: 3}},
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown good, got %v", err)
	}
}

func TestListOrdersPagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
			Items: []domain.OrderItemInput{{GoodID: "good-pine-flat-3m", Qty: 1}},
		}); err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
	}

	list, err := svc.ListOrders(ctx, 1, 10, "", "")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if list.Pagination.TotalItems != 25 || list.Pagination.TotalPages != 3 {
		t.Fatalf("expected 25 items over 3 pages, got %+v", list.Pagination)
	}
	if len(list.Items) != 10 {
		t.Fatalf("expected 10 items on page 1, got %d", len(list.Items))
	}
	for _, item := range list.Items {
		if len(item.Lines) != 1 || item.Lines[0].GoodID != "good-pine-flat-3m" {
			t.Fatalf("expected each listed order to carry its lines, got %+v", item.Lines)
		}
		if item.Lines[0].OrderID != item.Order.ID {
			t.Fatalf("line not linked to its order: %+v", item.Lines[0])
		}
	}

	last, err := svc.ListOrders(ctx, 3, 10, "", "")
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	if len(last.Items) != 5 {
		t.Fatalf("expected 5 items on page 3, got %d", len(last.Items))
	}

	beyond, err := svc.ListOrders(ctx, 4, 10, "", "")
	if err != nil {
		t.Fatalf("list beyond last page: %v", err)
	}
	if len(beyond.Items) != 0 {
		t.Fatalf("expected empty page past the end, got %d items", len(beyond.Items))
	}
}

func TestListOrdersDateWindow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{{GoodID: "good-pine-flat-3m", Qty: 1}},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	list, err := svc.ListOrders(ctx, 1, 10, today, today)
	if err != nil {
		t.Fatalf("list with window: %v", err)
	}
	if list.Pagination.TotalItems != 1 {
		t.Fatalf("expected today's order inside inclusive window, got %d", list.Pagination.TotalItems)
	}

	past, err := svc.ListOrders(ctx, 1, 10, "2001-01-01", "2001-01-02")
	if err != nil {
		t.Fatalf("list past window: %v", err)
	}
	if past.Pagination.TotalItems != 0 {
		t.Fatalf("expected no orders in past window, got %d", past.Pagination.TotalItems)
	}

	if _, err := svc.ListOrders(ctx, 1, 10, "not-a-date", ""); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bad date, got %v", err)
	}
	if _, err := svc.ListOrders(ctx, 1, 10, "2026-02-02", "2026-02-01"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for reversed window, got %v", err)
	}
}

func TestGetOrderDetailResolvesAttributes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{{GoodID: "good-teak-flat-2m", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	detail, err := svc.GetOrderDetail(ctx, resp.Order.ID)
	if err != nil {
		t.Fatalf("order detail: %v", err)
	}
	if len(detail.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(detail.Lines))
	}
	good := detail.Lines[0].Good
	if good == nil || good.WoodType == nil || good.EndGrain == nil || good.Length == nil {
		t.Fatalf("expected resolved attributes on line good: %+v", good)
	}
	if good.WoodType.Name != "Teak" {
		t.Fatalf("expected wood type Teak, got %s", good.WoodType.Name)
	}

	// Reads are idempotent.
	again, err := svc.GetOrderDetail(ctx, resp.Order.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if again.Order.GrandTotalCents != detail.Order.GrandTotalCents {
		t.Fatalf("detail changed between reads")
	}

	if _, err := svc.GetOrderDetail(ctx, "order-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.GetOrderDetail(ctx, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for empty id, got %v", err)
	}
}

func TestReportOverviewEmptyDay(t *testing.T) {
	svc, _ := newTestService()

	overview, err := svc.ReportOverview(context.Background())
	if err != nil {
		t.Fatalf("report overview: %v", err)
	}
	if overview.TotalProducts != 5 {
		t.Fatalf("expected 5 products, got %d", overview.TotalProducts)
	}
	if overview.TotalStockQty != 260 {
		t.Fatalf("expected 260 total stock, got %d", overview.TotalStockQty)
	}
	if overview.OrdersToday != 0 || overview.IncomeTodayCents != 0 || overview.ExpenseTodayCents != 0 || overview.TotalProfitCents != 0 {
		t.Fatalf("expected zeroed movement report, got %+v", overview)
	}
}

func TestReportOverviewAfterOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{{GoodID: "good-mahogany-flat-25m", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	overview, err := svc.ReportOverview(ctx)
	if err != nil {
		t.Fatalf("report overview: %v", err)
	}
	if overview.OrdersToday != 1 {
		t.Fatalf("expected 1 order today, got %d", overview.OrdersToday)
	}
	if overview.IncomeTodayCents != resp.Order.GrandTotalCents {
		t.Fatalf("expected income %d, got %d", resp.Order.GrandTotalCents, overview.IncomeTodayCents)
	}
	wantExpense := int64(2 * 142000)
	if overview.ExpenseTodayCents != wantExpense {
		t.Fatalf("expected expense %d, got %d", wantExpense, overview.ExpenseTodayCents)
	}
	if overview.TotalProfitCents != overview.IncomeTodayCents-overview.ExpenseTodayCents {
		t.Fatalf("profit mismatch: %+v", overview)
	}
}

func TestCreateGoodRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateGood(context.Background(), domain.GoodCreateRequest{
		WoodTypeID: "wt-teak",
		EndGrainID: "eg-flat",
		LengthID:   "len-2m",
		PriceCents: 100000,
	})
	if !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected admin-required rejection without actor, got %v", err)
	}

	staffCtx := WithActor(context.Background(), domain.Actor{Username: "staff", Role: "staff"})
	if _, err := svc.CreateGood(staffCtx, domain.GoodCreateRequest{
		WoodTypeID: "wt-teak",
		EndGrainID: "eg-flat",
		LengthID:   "len-2m",
		PriceCents: 100000,
	}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected admin-required rejection for staff role, got %v", err)
	}
}

func TestCreateGoodAndLedgerHistory(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	created, err := svc.CreateGood(ctx, domain.GoodCreateRequest{
		WoodTypeID: "wt-oak",
		EndGrainID: "eg-quarter",
		LengthID:   "len-25m",
		CostCents:  90000,
		PriceCents: 130000,
		InitialQty: 12,
	})
	if err != nil {
		t.Fatalf("create good: %v", err)
	}
	if created.QtyOnHand != 12 {
		t.Fatalf("expected initial qty 12, got %d", created.QtyOnHand)
	}
	if created.WoodType == nil || created.WoodType.Name != "Oak" {
		t.Fatalf("expected resolved wood type, got %+v", created.WoodType)
	}

	if _, err := svc.SyncStock(ctx, domain.StockSyncRequest{
		Items: []domain.SyncItemInput{{GoodID: created.ID, Qty: 8}},
	}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	entries, err := svc.LedgerHistory(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("ledger history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Delta != 8 || entries[0].BeforeQty != 12 || entries[0].AfterQty != 20 {
		t.Fatalf("unexpected ledger entry %+v", entries[0])
	}
}

func TestUpdateGoodNeverTouchesQuantity(t *testing.T) {
	svc, repo := newTestService()
	ctx := adminCtx()

	newPrice := int64(300000)
	updated, err := svc.UpdateGood(ctx, "good-teak-flat-2m", domain.GoodUpdateRequest{
		PriceCents: &newPrice,
	})
	if err != nil {
		t.Fatalf("update good: %v", err)
	}
	if updated.PriceCents != 300000 {
		t.Fatalf("expected price updated, got %d", updated.PriceCents)
	}
	if updated.QtyOnHand != 40 {
		t.Fatalf("expected quantity untouched at 40, got %d", updated.QtyOnHand)
	}

	good, _ := repo.GetGoodByID(ctx, "good-teak-flat-2m")
	if good.QtyOnHand != 40 {
		t.Fatalf("expected stored quantity 40, got %d", good.QtyOnHand)
	}
}

func TestStockSyncDetail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.SyncStock(ctx, domain.StockSyncRequest{
		Note: "two goods",
		Items: []domain.SyncItemInput{
			{GoodID: "good-teak-flat-2m", Qty: 4},
			{GoodID: "good-pine-flat-3m", Qty: 6},
		},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	detail, err := svc.GetStockSyncDetail(ctx, resp.Sync.ID)
	if err != nil {
		t.Fatalf("sync detail: %v", err)
	}
	if detail.Sync.TotalItems != 2 {
		t.Fatalf("expected 2 total items, got %d", detail.Sync.TotalItems)
	}
	if len(detail.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(detail.Lines))
	}
	for _, line := range detail.Lines {
		if line.Good == nil {
			t.Fatalf("expected resolved good on line %+v", line)
		}
		if line.AfterQty != line.BeforeQty+line.Qty {
			t.Fatalf("before/after mismatch: %+v", line)
		}
	}

	if _, err := svc.GetStockSyncDetail(ctx, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for empty id, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samnang-john/pos-base-back/internal/cache"
	"github.com/samnang-john/pos-base-back/internal/domain"
	"github.com/samnang-john/pos-base-back/internal/store"
	"github.com/samnang-john/pos-base-back/internal/xid"
)

// ErrAdminRequired rejects catalogue mutations from non-admin actors.
var ErrAdminRequired = errors.New("admin role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo        store.Repository
	reportCache cache.ReportCache
	reportTTL   time.Duration
}

func New(repo store.Repository, reportCache cache.ReportCache, reportTTL time.Duration) *Service {
	if reportCache == nil {
		reportCache = cache.NewNoop()
	}
	if reportTTL <= 0 {
		reportTTL = 30 * time.Second
	}

	return &Service{
		repo:        repo,
		reportCache: reportCache,
		reportTTL:   reportTTL,
	}
}

func (s *Service) CreateAttribute(ctx context.Context, req domain.AttributeCreateRequest) (domain.Attribute, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Attribute{}, ErrAdminRequired
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return domain.Attribute{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateAttribute(ctx, domain.Attribute{
		Kind:        req.Kind,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return domain.Attribute{}, err
	}
	return *created, nil
}

func (s *Service) ListAttributes(ctx context.Context, kind string) ([]domain.Attribute, error) {
	return s.repo.ListAttributes(ctx, kind)
}

func (s *Service) CreateGood(ctx context.Context, req domain.GoodCreateRequest) (domain.GoodView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.GoodView{}, ErrAdminRequired
	}

	if req.WoodTypeID == "" || req.EndGrainID == "" || req.LengthID == "" {
		return domain.GoodView{}, store.ErrInvalidInput
	}
	if req.PriceCents < 1 || req.CostCents < 0 || req.InitialQty < 0 || req.HandlingFeeCents < 0 {
		return domain.GoodView{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateGood(ctx, domain.Good{
		WoodTypeID:       req.WoodTypeID,
		EndGrainID:       req.EndGrainID,
		LengthID:         req.LengthID,
		CostCents:        req.CostCents,
		PriceCents:       req.PriceCents,
		QtyOnHand:        req.InitialQty,
		HandlingFeeCents: req.HandlingFeeCents,
	})
	if err != nil {
		return domain.GoodView{}, err
	}

	s.invalidateReportCache(ctx)
	views, err := s.resolveGoodViews(ctx, []domain.Good{*created})
	if err != nil {
		return domain.GoodView{}, err
	}
	return views[0], nil
}

func (s *Service) GetGoodDetail(ctx context.Context, id string) (domain.GoodView, error) {
	good, err := s.repo.GetGoodByID(ctx, id)
	if err != nil {
		return domain.GoodView{}, err
	}
	views, err := s.resolveGoodViews(ctx, []domain.Good{*good})
	if err != nil {
		return domain.GoodView{}, err
	}
	return views[0], nil
}

func (s *Service) UpdateGood(ctx context.Context, id string, req domain.GoodUpdateRequest) (domain.GoodView, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.GoodView{}, ErrAdminRequired
	}
	if id == "" {
		return domain.GoodView{}, store.ErrInvalidInput
	}

	updated, err := s.repo.UpdateGood(ctx, id, req)
	if err != nil {
		return domain.GoodView{}, err
	}
	views, err := s.resolveGoodViews(ctx, []domain.Good{*updated})
	if err != nil {
		return domain.GoodView{}, err
	}
	return views[0], nil
}

func (s *Service) ListGoods(ctx context.Context, page int, size int) (domain.GoodListResponse, error) {
	page, size = clampPage(page, size)
	goods, total, err := s.repo.ListGoods(ctx, page, size)
	if err != nil {
		return domain.GoodListResponse{}, err
	}
	views, err := s.resolveGoodViews(ctx, goods)
	if err != nil {
		return domain.GoodListResponse{}, err
	}
	return domain.GoodListResponse{
		Items:      views,
		Pagination: buildPagination(page, size, total),
	}, nil
}

func (s *Service) LedgerHistory(ctx context.Context, goodID string, limit int) ([]domain.LedgerEntry, error) {
	if goodID == "" {
		return nil, store.ErrInvalidInput
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListLedgerEntries(ctx, goodID, limit)
}

// CreateOrder commits a multi-line sale. Each line is decremented through the
// store's conditional-adjust primitive; every applied adjustment is remembered
// and undone in reverse order if any later step fails, so a rejected order
// leaves no net stock movement and persists nothing.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.OrderResponse, error) {
	if len(req.Items) == 0 {
		return domain.OrderResponse{}, store.ErrInvalidInput
	}
	if req.DiscountCents < 0 || req.TaxCents < 0 {
		return domain.OrderResponse{}, store.ErrInvalidInput
	}
	for _, item := range req.Items {
		if item.GoodID == "" || item.Qty < 1 || item.DiscountCents < 0 {
			return domain.OrderResponse{}, store.ErrInvalidInput
		}
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:            xid.New("order"),
		OrderNumber:   xid.Invoice("INV"),
		Customer:      strings.TrimSpace(req.Customer),
		DiscountCents: req.DiscountCents,
		TaxCents:      req.TaxCents,
		PaymentStatus: domain.PaymentStatusPaid,
		CreatedAt:     now,
	}

	applied := make([]domain.StockAdjustment, 0, len(req.Items))
	lines := make([]domain.OrderLine, 0, len(req.Items))
	ledger := make([]domain.LedgerEntry, 0, len(req.Items))
	subtotal := int64(0)

	for _, item := range req.Items {
		adj, err := s.repo.AdjustGoodQuantity(ctx, item.GoodID, -item.Qty, 0)
		if err != nil {
			s.compensate(ctx, applied)
			return domain.OrderResponse{}, err
		}
		applied = append(applied, *adj)

		lineTotal := adj.PriceCents*int64(item.Qty) - item.DiscountCents
		if lineTotal < 0 {
			s.compensate(ctx, applied)
			return domain.OrderResponse{}, store.ErrInvalidInput
		}
		subtotal += lineTotal

		lines = append(lines, domain.OrderLine{
			ID:             xid.New("oline"),
			OrderID:        order.ID,
			GoodID:         item.GoodID,
			Qty:            item.Qty,
			UnitPriceCents: adj.PriceCents,
			UnitCostCents:  adj.CostCents,
			DiscountCents:  item.DiscountCents,
			TotalCents:     lineTotal,
			CreatedAt:      now,
		})
		ledger = append(ledger, domain.LedgerEntry{
			ID:        xid.New("ledger"),
			GoodID:    item.GoodID,
			Delta:     -item.Qty,
			BeforeQty: adj.BeforeQty,
			AfterQty:  adj.AfterQty,
			RefType:   domain.LedgerRefOrder,
			RefID:     order.ID,
			CreatedAt: now,
		})
	}

	if req.DiscountCents > subtotal {
		s.compensate(ctx, applied)
		return domain.OrderResponse{}, store.ErrInvalidInput
	}
	order.SubtotalCents = subtotal
	order.GrandTotalCents = subtotal - req.DiscountCents + req.TaxCents

	created, err := s.repo.CreateOrder(ctx, order, lines, ledger)
	if err != nil {
		s.compensate(ctx, applied)
		return domain.OrderResponse{}, err
	}

	s.invalidateReportCache(ctx)
	return domain.OrderResponse{Order: *created, Lines: lines}, nil
}

func (s *Service) ListOrders(ctx context.Context, page int, size int, startDate string, endDate string) (domain.OrderListResponse, error) {
	page, size = clampPage(page, size)
	from, to, err := parseDateWindow(startDate, endDate)
	if err != nil {
		return domain.OrderListResponse{}, err
	}

	orders, total, err := s.repo.ListOrders(ctx, from, to, page, size)
	if err != nil {
		return domain.OrderListResponse{}, err
	}

	items := make([]domain.OrderResponse, 0, len(orders))
	for _, order := range orders {
		lines, err := s.repo.GetOrderLines(ctx, order.ID)
		if err != nil {
			return domain.OrderListResponse{}, err
		}
		items = append(items, domain.OrderResponse{Order: order, Lines: lines})
	}
	return domain.OrderListResponse{
		Items:      items,
		Pagination: buildPagination(page, size, total),
	}, nil
}

func (s *Service) GetOrderDetail(ctx context.Context, id string) (domain.OrderDetailResponse, error) {
	if id == "" {
		return domain.OrderDetailResponse{}, store.ErrNotFound
	}

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.OrderDetailResponse{}, err
	}
	lines, err := s.repo.GetOrderLines(ctx, id)
	if err != nil {
		return domain.OrderDetailResponse{}, err
	}

	goodIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		goodIDs = append(goodIDs, line.GoodID)
	}
	viewsByID, err := s.resolveGoodViewsByIDs(ctx, goodIDs)
	if err != nil {
		return domain.OrderDetailResponse{}, err
	}

	lineViews := make([]domain.OrderLineView, 0, len(lines))
	for _, line := range lines {
		view := domain.OrderLineView{OrderLine: line}
		if gv, ok := viewsByID[line.GoodID]; ok {
			gvCopy := gv
			view.Good = &gvCopy
		}
		lineViews = append(lineViews, view)
	}

	return domain.OrderDetailResponse{Order: *order, Lines: lineViews}, nil
}

// SyncStock commits a replenishment event. Increments share the same
// all-or-nothing discipline as orders: on failure every already-applied
// increment is reverted, floored at zero since a concurrent sale may have
// consumed part of the just-added stock.
func (s *Service) SyncStock(ctx context.Context, req domain.StockSyncRequest) (domain.StockSyncResponse, error) {
	if len(req.Items) == 0 {
		return domain.StockSyncResponse{}, store.ErrInvalidInput
	}
	for _, item := range req.Items {
		if item.GoodID == "" || item.Qty < 1 {
			return domain.StockSyncResponse{}, store.ErrInvalidInput
		}
	}

	createdBy := ""
	if actor, ok := ActorFromContext(ctx); ok {
		createdBy = actor.Username
	}

	now := time.Now().UTC()
	sync := domain.StockSync{
		ID:         xid.New("sync"),
		SyncNumber: xid.Invoice("SYNC"),
		Note:       strings.TrimSpace(req.Note),
		TotalItems: len(req.Items),
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}

	applied := make([]domain.StockAdjustment, 0, len(req.Items))
	lines := make([]domain.StockSyncLine, 0, len(req.Items))
	ledger := make([]domain.LedgerEntry, 0, len(req.Items))

	for _, item := range req.Items {
		adj, err := s.repo.AdjustGoodQuantity(ctx, item.GoodID, item.Qty, 0)
		if err != nil {
			s.compensate(ctx, applied)
			return domain.StockSyncResponse{}, err
		}
		applied = append(applied, *adj)

		lines = append(lines, domain.StockSyncLine{
			ID:        xid.New("sline"),
			SyncID:    sync.ID,
			GoodID:    item.GoodID,
			Qty:       item.Qty,
			BeforeQty: adj.BeforeQty,
			AfterQty:  adj.AfterQty,
		})
		ledger = append(ledger, domain.LedgerEntry{
			ID:        xid.New("ledger"),
			GoodID:    item.GoodID,
			Delta:     item.Qty,
			BeforeQty: adj.BeforeQty,
			AfterQty:  adj.AfterQty,
			RefType:   domain.LedgerRefStockSync,
			RefID:     sync.ID,
			CreatedAt: now,
		})
	}

	created, err := s.repo.CreateStockSync(ctx, sync, lines, ledger)
	if err != nil {
		s.compensate(ctx, applied)
		return domain.StockSyncResponse{}, err
	}

	s.invalidateReportCache(ctx)
	return domain.StockSyncResponse{Sync: *created, Lines: lines}, nil
}

func (s *Service) ListStockSyncs(ctx context.Context, page int, size int, startDate string, endDate string) (domain.StockSyncListResponse, error) {
	page, size = clampPage(page, size)
	from, to, err := parseDateWindow(startDate, endDate)
	if err != nil {
		return domain.StockSyncListResponse{}, err
	}

	syncs, total, err := s.repo.ListStockSyncs(ctx, from, to, page, size)
	if err != nil {
		return domain.StockSyncListResponse{}, err
	}
	return domain.StockSyncListResponse{
		Items:      syncs,
		Pagination: buildPagination(page, size, total),
	}, nil
}

func (s *Service) GetStockSyncDetail(ctx context.Context, id string) (domain.StockSyncDetailResponse, error) {
	if id == "" {
		return domain.StockSyncDetailResponse{}, store.ErrNotFound
	}

	sync, err := s.repo.GetStockSyncByID(ctx, id)
	if err != nil {
		return domain.StockSyncDetailResponse{}, err
	}
	lines, err := s.repo.GetStockSyncLines(ctx, id)
	if err != nil {
		return domain.StockSyncDetailResponse{}, err
	}

	goodIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		goodIDs = append(goodIDs, line.GoodID)
	}
	viewsByID, err := s.resolveGoodViewsByIDs(ctx, goodIDs)
	if err != nil {
		return domain.StockSyncDetailResponse{}, err
	}

	lineViews := make([]domain.StockSyncLineView, 0, len(lines))
	for _, line := range lines {
		view := domain.StockSyncLineView{StockSyncLine: line}
		if gv, ok := viewsByID[line.GoodID]; ok {
			gvCopy := gv
			view.Good = &gvCopy
		}
		lineViews = append(lineViews, view)
	}

	return domain.StockSyncDetailResponse{Sync: *sync, Lines: lineViews}, nil
}

// ReportOverview aggregates catalogue totals plus income, expense, and profit
// for the window from start of the current UTC day through now.
func (s *Service) ReportOverview(ctx context.Context) (domain.ReportOverview, error) {
	if cached, ok, err := s.reportCache.Get(ctx); err != nil {
		log.Printf("[service] WARN: report cache read failed: %v", err)
	} else if ok && cached != nil {
		return *cached, nil
	}

	totalProducts, totalStock, err := s.repo.CountGoodsAndStock(ctx)
	if err != nil {
		return domain.ReportOverview{}, err
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ordersToday, incomeToday, err := s.repo.OrderIncome(ctx, from, now)
	if err != nil {
		return domain.ReportOverview{}, err
	}
	expenseToday, err := s.repo.OrderLineExpense(ctx, from, now)
	if err != nil {
		return domain.ReportOverview{}, err
	}

	overview := domain.ReportOverview{
		TotalProducts:     totalProducts,
		TotalStockQty:     totalStock,
		OrdersToday:       ordersToday,
		IncomeTodayCents:  incomeToday,
		ExpenseTodayCents: expenseToday,
		TotalProfitCents:  incomeToday - expenseToday,
	}

	if err := s.reportCache.Set(ctx, &overview, s.reportTTL); err != nil {
		log.Printf("[service] WARN: failed to cache report overview: %v", err)
	}
	return overview, nil
}

// compensate reverts applied adjustments in reverse order. The undo runs on a
// context detached from the request: a cancelled or timed-out request must
// still return the stock it decremented. A revert can fail when a concurrent
// transaction already consumed the quantity being returned; that leaves a
// logged discrepancy instead of blocking the rejection.
func (s *Service) compensate(ctx context.Context, applied []domain.StockAdjustment) {
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		adj := applied[i]
		if _, err := s.repo.AdjustGoodQuantity(ctx, adj.GoodID, -adj.Delta, 0); err != nil {
			log.Printf("[service] WARN: failed to compensate stock good=%s delta=%d: %v", adj.GoodID, -adj.Delta, err)
		}
	}
}

func (s *Service) invalidateReportCache(ctx context.Context) {
	if err := s.reportCache.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: failed to invalidate report cache: %v", err)
	}
}

func (s *Service) resolveGoodViews(ctx context.Context, goods []domain.Good) ([]domain.GoodView, error) {
	attrIDs := make([]string, 0, len(goods)*3)
	for _, g := range goods {
		attrIDs = append(attrIDs, g.WoodTypeID, g.EndGrainID, g.LengthID)
	}
	attributes, err := s.repo.GetAttributesByIDs(ctx, attrIDs)
	if err != nil {
		return nil, err
	}

	views := make([]domain.GoodView, 0, len(goods))
	for _, g := range goods {
		view := domain.GoodView{Good: g}
		if a, ok := attributes[g.WoodTypeID]; ok {
			aCopy := a
			view.WoodType = &aCopy
		}
		if a, ok := attributes[g.EndGrainID]; ok {
			aCopy := a
			view.EndGrain = &aCopy
		}
		if a, ok := attributes[g.LengthID]; ok {
			aCopy := a
			view.Length = &aCopy
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) resolveGoodViewsByIDs(ctx context.Context, ids []string) (map[string]domain.GoodView, error) {
	goodsByID, err := s.repo.GetGoodsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	goods := make([]domain.Good, 0, len(goodsByID))
	for _, g := range goodsByID {
		goods = append(goods, g)
	}
	views, err := s.resolveGoodViews(ctx, goods)
	if err != nil {
		return nil, err
	}
	result := make(map[string]domain.GoodView, len(views))
	for _, v := range views {
		result[v.ID] = v
	}
	return result, nil
}

// parseDateWindow turns optional YYYY-MM-DD bounds into an inclusive
// calendar-day window: start of startDate through the last nanosecond of
// endDate, both UTC.
func parseDateWindow(startDate string, endDate string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if startDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid startDate", store.ErrInvalidInput)
		}
		from = &parsed
	}
	if endDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid endDate", store.ErrInvalidInput)
		}
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("%w: endDate before startDate", store.ErrInvalidInput)
	}
	return from, to, nil
}

func clampPage(page int, size int) (int, int) {
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

func buildPagination(page int, size int, total int) domain.Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}
	return domain.Pagination{
		CurrentPage: page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}

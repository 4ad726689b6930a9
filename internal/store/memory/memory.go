package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/samnang-john/pos-base-back/internal/domain"
	"github.com/samnang-john/pos-base-back/internal/store"
	"github.com/samnang-john/pos-base-back/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	attributesByID  map[string]domain.Attribute
	goodsByID       map[string]domain.Good
	ordersByID      map[string]domain.Order
	orderLines      map[string][]domain.OrderLine
	orderNumbers    map[string]string
	syncsByID       map[string]domain.StockSync
	syncLines       map[string][]domain.StockSyncLine
	syncNumbers     map[string]string
	ledgerByGood    map[string][]domain.LedgerEntry
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		attributesByID:  make(map[string]domain.Attribute),
		goodsByID:       make(map[string]domain.Good),
		ordersByID:      make(map[string]domain.Order),
		orderLines:      make(map[string][]domain.OrderLine),
		orderNumbers:    make(map[string]string),
		syncsByID:       make(map[string]domain.StockSync),
		syncLines:       make(map[string][]domain.StockSyncLine),
		syncNumbers:     make(map[string]string),
		ledgerByGood:    make(map[string][]domain.LedgerEntry),
		usersByUsername: seedUsers(),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD; hardcoded
// dev defaults are used with a warning when unset. Production deployments use
// PostgreSQL (DATABASE_URL) and never touch these.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"staff", staffPwd, "staff"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store preloaded with a small wood catalogue for
// dev/demo mode. IDs are fixed so seeded goods are addressable from curl.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	attributes := []domain.Attribute{
		{ID: "wt-teak", Kind: domain.AttributeKindWoodType, Name: "Teak", Description: "dense tropical hardwood"},
		{ID: "wt-mahogany", Kind: domain.AttributeKindWoodType, Name: "Mahogany"},
		{ID: "wt-oak", Kind: domain.AttributeKindWoodType, Name: "Oak"},
		{ID: "wt-pine", Kind: domain.AttributeKindWoodType, Name: "Pine", Description: "softwood, construction grade"},
		{ID: "eg-flat", Kind: domain.AttributeKindEndGrain, Name: "Flat Sawn"},
		{ID: "eg-quarter", Kind: domain.AttributeKindEndGrain, Name: "Quarter Sawn"},
		{ID: "eg-rift", Kind: domain.AttributeKindEndGrain, Name: "Rift Sawn"},
		{ID: "len-2m", Kind: domain.AttributeKindLength, Name: "2.0 m"},
		{ID: "len-25m", Kind: domain.AttributeKindLength, Name: "2.5 m"},
		{ID: "len-3m", Kind: domain.AttributeKindLength, Name: "3.0 m"},
	}
	for _, a := range attributes {
		s.attributesByID[a.ID] = a
	}

	goods := []domain.Good{
		{ID: "good-teak-flat-2m", WoodTypeID: "wt-teak", EndGrainID: "eg-flat", LengthID: "len-2m", CostCents: 185000, PriceCents: 260000, QtyOnHand: 40},
		{ID: "good-teak-quarter-3m", WoodTypeID: "wt-teak", EndGrainID: "eg-quarter", LengthID: "len-3m", CostCents: 298000, PriceCents: 415000, QtyOnHand: 18},
		{ID: "good-mahogany-flat-25m", WoodTypeID: "wt-mahogany", EndGrainID: "eg-flat", LengthID: "len-25m", CostCents: 142000, PriceCents: 199000, QtyOnHand: 55},
		{ID: "good-oak-rift-2m", WoodTypeID: "wt-oak", EndGrainID: "eg-rift", LengthID: "len-2m", CostCents: 164000, PriceCents: 238000, QtyOnHand: 27},
		{ID: "good-pine-flat-3m", WoodTypeID: "wt-pine", EndGrainID: "eg-flat", LengthID: "len-3m", CostCents: 52000, PriceCents: 79000, QtyOnHand: 120},
	}
	for _, g := range goods {
		g.CreatedAt = now
		s.goodsByID[g.ID] = g
	}

	return s
}

func (s *Store) CreateAttribute(_ context.Context, attribute domain.Attribute) (*domain.Attribute, error) {
	attribute.Name = strings.TrimSpace(attribute.Name)
	if attribute.Name == "" || !validAttributeKind(attribute.Kind) {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.attributesByID {
		if existing.Kind == attribute.Kind && strings.EqualFold(existing.Name, attribute.Name) {
			return nil, store.ErrConflict
		}
	}
	if attribute.ID == "" {
		attribute.ID = xid.New("attr")
	}
	s.attributesByID[attribute.ID] = attribute
	created := attribute
	return &created, nil
}

func (s *Store) ListAttributes(_ context.Context, kind string) ([]domain.Attribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Attribute, 0, len(s.attributesByID))
	for _, a := range s.attributesByID {
		if kind != "" && a.Kind != kind {
			continue
		}
		result = append(result, a)
	}
	slices.SortFunc(result, func(a, b domain.Attribute) int {
		if a.Kind == b.Kind {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Kind, b.Kind)
	})
	return result, nil
}

func (s *Store) GetAttributesByIDs(_ context.Context, ids []string) (map[string]domain.Attribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Attribute, len(ids))
	for _, id := range ids {
		if a, ok := s.attributesByID[id]; ok {
			result[id] = a
		}
	}
	return result, nil
}

func (s *Store) CreateGood(_ context.Context, good domain.Good) (*domain.Good, error) {
	if good.PriceCents < 1 || good.CostCents < 0 || good.QtyOnHand < 0 || good.HandlingFeeCents < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, attrID := range []string{good.WoodTypeID, good.EndGrainID, good.LengthID} {
		if _, exists := s.attributesByID[attrID]; !exists {
			return nil, store.ErrInvalidInput
		}
	}
	if good.ID == "" {
		good.ID = xid.New("good")
	}
	if good.CreatedAt.IsZero() {
		good.CreatedAt = time.Now().UTC()
	}
	s.goodsByID[good.ID] = good
	created := good
	return &created, nil
}

func (s *Store) GetGoodByID(_ context.Context, id string) (*domain.Good, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	good, exists := s.goodsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyGood := good
	return &copyGood, nil
}

func (s *Store) UpdateGood(_ context.Context, id string, update domain.GoodUpdateRequest) (*domain.Good, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	good, exists := s.goodsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}

	if update.WoodTypeID != nil {
		good.WoodTypeID = *update.WoodTypeID
	}
	if update.EndGrainID != nil {
		good.EndGrainID = *update.EndGrainID
	}
	if update.LengthID != nil {
		good.LengthID = *update.LengthID
	}
	if update.CostCents != nil {
		good.CostCents = *update.CostCents
	}
	if update.PriceCents != nil {
		good.PriceCents = *update.PriceCents
	}
	if update.HandlingFeeCents != nil {
		good.HandlingFeeCents = *update.HandlingFeeCents
	}
	if good.PriceCents < 1 || good.CostCents < 0 || good.HandlingFeeCents < 0 {
		return nil, store.ErrInvalidInput
	}
	for _, attrID := range []string{good.WoodTypeID, good.EndGrainID, good.LengthID} {
		if _, exists := s.attributesByID[attrID]; !exists {
			return nil, store.ErrInvalidInput
		}
	}

	s.goodsByID[id] = good
	updated := good
	return &updated, nil
}

func (s *Store) ListGoods(_ context.Context, page int, size int) ([]domain.Good, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goods := make([]domain.Good, 0, len(s.goodsByID))
	for _, g := range s.goodsByID {
		goods = append(goods, g)
	}
	slices.SortFunc(goods, func(a, b domain.Good) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	total := len(goods)
	return pageSlice(goods, page, size), total, nil
}

func (s *Store) GetGoodsByIDs(_ context.Context, ids []string) (map[string]domain.Good, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Good, len(ids))
	for _, id := range ids {
		if g, ok := s.goodsByID[id]; ok {
			result[id] = g
		}
	}
	return result, nil
}

// AdjustGoodQuantity applies delta to the good's on-hand quantity only if the
// resulting quantity stays >= minResulting, all under one lock acquisition.
// The returned snapshot carries the unit price and cost read in the same step.
func (s *Store) AdjustGoodQuantity(_ context.Context, goodID string, delta int, minResulting int) (*domain.StockAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	good, exists := s.goodsByID[goodID]
	if !exists {
		return nil, store.ErrNotFound
	}

	resulting := good.QtyOnHand + delta
	if resulting < minResulting {
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

	before := good.QtyOnHand
	good.QtyOnHand = resulting
	s.goodsByID[goodID] = good

	return &domain.StockAdjustment{
		GoodID:     goodID,
		Delta:      delta,
		BeforeQty:  before,
		AfterQty:   resulting,
		PriceCents: good.PriceCents,
		CostCents:  good.CostCents,
	}, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order, lines []domain.OrderLine, ledger []domain.LedgerEntry) (*domain.Order, error) {
	if order.ID == "" || order.OrderNumber == "" || len(lines) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.orderNumbers[order.OrderNumber]; taken {
		return nil, store.ErrConflict
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	linesCopy := make([]domain.OrderLine, len(lines))
	copy(linesCopy, lines)
	s.ordersByID[order.ID] = order
	s.orderLines[order.ID] = linesCopy
	s.orderNumbers[order.OrderNumber] = order.ID
	s.appendLedgerLocked(ledger, order.CreatedAt)

	created := order
	return &created, nil
}

func (s *Store) ListOrders(_ context.Context, from *time.Time, to *time.Time, page int, size int) ([]domain.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, o := range s.ordersByID {
		if !inWindow(o.CreatedAt, from, to) {
			continue
		}
		orders = append(orders, o)
	}
	sortNewestFirst(orders, func(o domain.Order) (time.Time, string) { return o.CreatedAt, o.ID })
	total := len(orders)
	return pageSlice(orders, page, size), total, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOrder := order
	return &copyOrder, nil
}

func (s *Store) GetOrderLines(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.ordersByID[orderID]; !exists {
		return nil, store.ErrNotFound
	}
	lines := s.orderLines[orderID]
	result := make([]domain.OrderLine, len(lines))
	copy(result, lines)
	return result, nil
}

func (s *Store) CreateStockSync(_ context.Context, sync domain.StockSync, lines []domain.StockSyncLine, ledger []domain.LedgerEntry) (*domain.StockSync, error) {
	if sync.ID == "" || sync.SyncNumber == "" || len(lines) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.syncNumbers[sync.SyncNumber]; taken {
		return nil, store.ErrConflict
	}
	if sync.CreatedAt.IsZero() {
		sync.CreatedAt = time.Now().UTC()
	}
	sync.TotalItems = len(lines)

	linesCopy := make([]domain.StockSyncLine, len(lines))
	copy(linesCopy, lines)
	s.syncsByID[sync.ID] = sync
	s.syncLines[sync.ID] = linesCopy
	s.syncNumbers[sync.SyncNumber] = sync.ID
	s.appendLedgerLocked(ledger, sync.CreatedAt)

	created := sync
	return &created, nil
}

func (s *Store) ListStockSyncs(_ context.Context, from *time.Time, to *time.Time, page int, size int) ([]domain.StockSync, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	syncs := make([]domain.StockSync, 0, len(s.syncsByID))
	for _, sync := range s.syncsByID {
		if !inWindow(sync.CreatedAt, from, to) {
			continue
		}
		syncs = append(syncs, sync)
	}
	sortNewestFirst(syncs, func(sync domain.StockSync) (time.Time, string) { return sync.CreatedAt, sync.ID })
	total := len(syncs)
	return pageSlice(syncs, page, size), total, nil
}

func (s *Store) GetStockSyncByID(_ context.Context, id string) (*domain.StockSync, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sync, exists := s.syncsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySync := sync
	return &copySync, nil
}

func (s *Store) GetStockSyncLines(_ context.Context, syncID string) ([]domain.StockSyncLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.syncsByID[syncID]; !exists {
		return nil, store.ErrNotFound
	}
	lines := s.syncLines[syncID]
	result := make([]domain.StockSyncLine, len(lines))
	copy(result, lines)
	return result, nil
}

func (s *Store) ListLedgerEntries(_ context.Context, goodID string, limit int) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.goodsByID[goodID]; !exists {
		return nil, store.ErrNotFound
	}
	entries := s.ledgerByGood[goodID]
	result := make([]domain.LedgerEntry, len(entries))
	copy(result, entries)
	sortNewestFirst(result, func(e domain.LedgerEntry) (time.Time, string) { return e.CreatedAt, e.ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CountGoodsAndStock(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalQty := 0
	for _, g := range s.goodsByID {
		totalQty += g.QtyOnHand
	}
	return len(s.goodsByID), totalQty, nil
}

func (s *Store) OrderIncome(_ context.Context, from time.Time, to time.Time) (int, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	income := int64(0)
	for _, o := range s.ordersByID {
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		count++
		income += o.GrandTotalCents
	}
	return count, income, nil
}

func (s *Store) OrderLineExpense(_ context.Context, from time.Time, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense := int64(0)
	for orderID, lines := range s.orderLines {
		order, exists := s.ordersByID[orderID]
		if !exists || order.CreatedAt.Before(from) || order.CreatedAt.After(to) {
			continue
		}
		for _, line := range lines {
			expense += line.UnitCostCents * int64(line.Qty)
		}
	}
	return expense, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "staff"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// appendLedgerLocked stamps and appends ledger entries. Callers hold the
// write lock; entries persist in the same critical section as their parent
// header so a reader never sees a ledger row without its committed parent.
func (s *Store) appendLedgerLocked(ledger []domain.LedgerEntry, at time.Time) {
	for _, entry := range ledger {
		if entry.ID == "" {
			entry.ID = xid.New("ledger")
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = at
		}
		s.ledgerByGood[entry.GoodID] = append(s.ledgerByGood[entry.GoodID], entry)
	}
}

func validAttributeKind(kind string) bool {
	switch kind {
	case domain.AttributeKindWoodType, domain.AttributeKindEndGrain, domain.AttributeKindLength:
		return true
	}
	return false
}

func inWindow(at time.Time, from *time.Time, to *time.Time) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && at.After(*to) {
		return false
	}
	return true
}

func pageSlice[T any](items []T, page int, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	slices.SortFunc(items, func(a, b T) int {
		at, aid := key(a)
		bt, bid := key(b)
		if at.Equal(bt) {
			return cmpString(bid, aid)
		}
		if at.After(bt) {
			return -1
		}
		return 1
	})
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samnang-john/pos-base-back/internal/cache"
	"github.com/samnang-john/pos-base-back/internal/domain"
	"github.com/samnang-john/pos-base-back/internal/service"
	"github.com/samnang-john/pos-base-back/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NewNoop(), 0)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*", "Test Timber")
}

func loginAs(t *testing.T, api *API, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("login as %s failed, status %d (body: %s)", username, res.Code, res.Body.String())
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return payload.AccessToken
}

func loginAsAdmin(t *testing.T, api *API) string {
	t.Helper()
	return loginAs(t, api, "admin", "admin123")
}

func doJSON(t *testing.T, api *API, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	res := doJSON(t, api, http.MethodGet, "/healthz", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)

	res := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "wrongpassword",
	})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestHandleOrders_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	res := doJSON(t, api, http.MethodGet, "/api/v1/orders", "", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestCreateOrderEndToEnd(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := doJSON(t, api, http.MethodPost, "/api/v1/orders", token, domain.OrderCreateRequest{
		Customer: "Workshop Rivera",
		Items: []domain.OrderItemInput{
			{GoodID: "good-teak-flat-2m", Qty: 2},
		},
		TaxCents: 52000,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	var resp domain.OrderResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode order response: %v", err)
	}
	if resp.Order.SubtotalCents != 520000 {
		t.Fatalf("expected subtotal 520000, got %d", resp.Order.SubtotalCents)
	}
	if resp.Order.GrandTotalCents != 572000 {
		t.Fatalf("expected grand total 572000, got %d", resp.Order.GrandTotalCents)
	}
	if !strings.HasPrefix(resp.Order.OrderNumber, "INV-") {
		t.Fatalf("expected INV- order number, got %s", resp.Order.OrderNumber)
	}
	if len(resp.Lines) != 1 || resp.Lines[0].UnitPriceCents != 260000 {
		t.Fatalf("unexpected lines %+v", resp.Lines)
	}

	// The decrement must be visible through the catalogue immediately.
	detail := doJSON(t, api, http.MethodGet, "/api/v1/goods/good-teak-flat-2m", token, nil)
	if detail.Code != http.StatusOK {
		t.Fatalf("expected 200 for good detail, got %d", detail.Code)
	}
	var goodBody struct {
		Good domain.GoodView `json:"good"`
	}
	if err := json.NewDecoder(detail.Body).Decode(&goodBody); err != nil {
		t.Fatalf("decode good detail: %v", err)
	}
	if goodBody.Good.QtyOnHand != 38 {
		t.Fatalf("expected qty 38 after sale, got %d", goodBody.Good.QtyOnHand)
	}
}

func TestCreateOrderInsufficientStockKeepsDetail(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := doJSON(t, api, http.MethodPost, "/api/v1/orders", token, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{GoodID: "good-teak-quarter-3m", Qty: 999},
		},
	})
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d (body: %s)", res.Code, res.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	msg := body["error"]
	if !strings.Contains(msg, "insufficient stock") {
		t.Fatalf("expected detailed insufficient stock message, got %q", msg)
	}
	if !strings.Contains(msg, "requested 999, available 18") {
		t.Fatalf("expected quantities in message, got %q", msg)
	}
}

func TestCreateGoodForbiddenForStaff(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	res := doJSON(t, api, http.MethodPost, "/api/v1/goods", token, domain.GoodCreateRequest{
		WoodTypeID: "wt-oak",
		EndGrainID: "eg-flat",
		LengthID:   "len-2m",
		CostCents:  100000,
		PriceCents: 150000,
		InitialQty: 10,
	})
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff creating goods, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestListGoodsPaginated(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/goods?page=1&size=2", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp domain.GoodListResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode goods list: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items on page, got %d", len(resp.Items))
	}
	if resp.Pagination.TotalItems != 5 || resp.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination %+v", resp.Pagination)
	}
	if resp.Items[0].WoodType == nil {
		t.Fatalf("expected attributes resolved on listed goods")
	}
}

func TestUnknownGoodReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/goods/good-missing", token, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestOrdersBadDateReturns400(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/orders?startDate=not-a-date", token, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid startDate, got %d", res.Code)
	}
}

func TestOrderReceiptDownload(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	created := doJSON(t, api, http.MethodPost, "/api/v1/orders", token, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{GoodID: "good-mahogany-flat-25m", Qty: 1},
		},
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create order failed: %d (body: %s)", created.Code, created.Body.String())
	}
	var resp domain.OrderResponse
	if err := json.NewDecoder(created.Body).Decode(&resp); err != nil {
		t.Fatalf("decode order response: %v", err)
	}

	res := doJSON(t, api, http.MethodGet, "/api/v1/orders/"+resp.Order.ID+"/receipt", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for receipt, got %d (body: %s)", res.Code, res.Body.String())
	}
	if ct := res.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain receipt, got %q", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, "receipt-"+resp.Order.OrderNumber) {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body := res.Body.String()
	if !strings.Contains(body, "Test Timber") || !strings.Contains(body, "Grand total") {
		t.Fatalf("receipt missing expected content:\n%s", body)
	}
}

func TestStockSyncAndCSVReport(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "staff", "staff123")

	created := doJSON(t, api, http.MethodPost, "/api/v1/stock/syncs", token, domain.StockSyncRequest{
		Note: "weekly delivery",
		Items: []domain.SyncItemInput{
			{GoodID: "good-pine-flat-3m", Qty: 5},
		},
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create sync failed: %d (body: %s)", created.Code, created.Body.String())
	}
	var resp domain.StockSyncResponse
	if err := json.NewDecoder(created.Body).Decode(&resp); err != nil {
		t.Fatalf("decode sync response: %v", err)
	}
	if resp.Sync.CreatedBy != "staff" {
		t.Fatalf("expected sync recorded for staff, got %q", resp.Sync.CreatedBy)
	}
	if len(resp.Lines) != 1 || resp.Lines[0].BeforeQty != 120 || resp.Lines[0].AfterQty != 125 {
		t.Fatalf("unexpected sync lines %+v", resp.Lines)
	}

	report := doJSON(t, api, http.MethodGet, "/api/v1/stock/syncs/"+resp.Sync.ID+"/report", token, nil)
	if report.Code != http.StatusOK {
		t.Fatalf("expected 200 for sync report, got %d", report.Code)
	}
	if ct := report.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv report, got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(report.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "sync_number,good,qty_added,before_qty,after_qty" {
		t.Fatalf("unexpected csv header %q", lines[0])
	}
}

func TestLedgerHistoryEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	created := doJSON(t, api, http.MethodPost, "/api/v1/orders", token, domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{GoodID: "good-oak-rift-2m", Qty: 3},
		},
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create order failed: %d", created.Code)
	}

	res := doJSON(t, api, http.MethodGet, "/api/v1/goods/good-oak-rift-2m/ledger", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for ledger, got %d", res.Code)
	}
	var body struct {
		Entries []domain.LedgerEntry `json:"entries"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode ledger: %v", err)
	}
	if len(body.Entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(body.Entries))
	}
	entry := body.Entries[0]
	if entry.Delta != -3 || entry.BeforeQty != 27 || entry.AfterQty != 24 {
		t.Fatalf("unexpected ledger entry %+v", entry)
	}
	if entry.RefType != domain.LedgerRefOrder {
		t.Fatalf("expected order ref, got %s", entry.RefType)
	}
}

func TestReportOverviewEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/reports/overview", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var overview domain.ReportOverview
	if err := json.NewDecoder(res.Body).Decode(&overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview.TotalProducts != 5 {
		t.Fatalf("expected 5 products, got %d", overview.TotalProducts)
	}
	if overview.TotalStockQty != 260 {
		t.Fatalf("expected 260 stock total, got %d", overview.TotalStockQty)
	}
}

func TestStaffManagementAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	staffToken := loginAs(t, api, "staff", "staff123")
	adminToken := loginAsAdmin(t, api)

	forbidden := doJSON(t, api, http.MethodGet, "/api/v1/users/staff", staffToken, nil)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff role, got %d", forbidden.Code)
	}

	created := doJSON(t, api, http.MethodPost, "/api/v1/users/staff", adminToken, domain.StaffCreateRequest{
		Username: "newclerk",
		Password: "clerkpass",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating staff, got %d (body: %s)", created.Code, created.Body.String())
	}

	// The new account can log in straight away.
	loginAs(t, api, "newclerk", "clerkpass")
}

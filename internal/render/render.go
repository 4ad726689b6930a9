package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samnang-john/pos-base-back/internal/domain"
)

// Artifact is a rendered document ready to stream to a client. Rendering is
// read-only over committed data: a failed render never touches the records it
// was built from.
type Artifact struct {
	Bytes       []byte
	ContentType string
	Filename    string
}

type OrderReceiptRenderer interface {
	RenderOrderReceipt(detail domain.OrderDetailResponse) (*Artifact, error)
}

type StockSyncReportRenderer interface {
	RenderStockSyncReport(detail domain.StockSyncDetailResponse) (*Artifact, error)
}

// TextReceipt renders a plain-text sales receipt.
type TextReceipt struct {
	ShopName string
}

func NewTextReceipt(shopName string) *TextReceipt {
	if shopName == "" {
		shopName = "Wood Stock POS"
	}
	return &TextReceipt{ShopName: shopName}
}

func (r *TextReceipt) RenderOrderReceipt(detail domain.OrderDetailResponse) (*Artifact, error) {
	order := detail.Order

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.ShopName)
	fmt.Fprintf(&b, "Receipt %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "Date: %s\n", order.CreatedAt.Format(time.RFC3339))
	if order.Customer != "" {
		fmt.Fprintf(&b, "Customer: %s\n", order.Customer)
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")

	for _, line := range detail.Lines {
		fmt.Fprintf(&b, "%s\n", describeGood(line.Good, line.GoodID))
		fmt.Fprintf(&b, "  %d x %s", line.Qty, formatCents(line.UnitPriceCents))
		if line.DiscountCents > 0 {
			fmt.Fprintf(&b, "  -%s", formatCents(line.DiscountCents))
		}
		fmt.Fprintf(&b, "  = %s\n", formatCents(line.TotalCents))
	}

	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "Subtotal:    %s\n", formatCents(order.SubtotalCents))
	if order.DiscountCents > 0 {
		fmt.Fprintf(&b, "Discount:   -%s\n", formatCents(order.DiscountCents))
	}
	if order.TaxCents > 0 {
		fmt.Fprintf(&b, "Tax:         %s\n", formatCents(order.TaxCents))
	}
	fmt.Fprintf(&b, "Grand total: %s\n", formatCents(order.GrandTotalCents))
	fmt.Fprintf(&b, "Payment:     %s\n", order.PaymentStatus)

	return &Artifact{
		Bytes:       []byte(b.String()),
		ContentType: "text/plain; charset=utf-8",
		Filename:    fmt.Sprintf("receipt-%s.txt", order.OrderNumber),
	}, nil
}

// CSVSyncReport renders a stock-sync audit report with the before and after
// quantities recorded on each line.
type CSVSyncReport struct{}

func NewCSVSyncReport() *CSVSyncReport {
	return &CSVSyncReport{}
}

func (CSVSyncReport) RenderStockSyncReport(detail domain.StockSyncDetailResponse) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"sync_number", "good", "qty_added", "before_qty", "after_qty"},
	}
	for _, line := range detail.Lines {
		rows = append(rows, []string{
			detail.Sync.SyncNumber,
			describeGood(line.Good, line.GoodID),
			strconv.Itoa(line.Qty),
			strconv.Itoa(line.BeforeQty),
			strconv.Itoa(line.AfterQty),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}

	return &Artifact{
		Bytes:       buf.Bytes(),
		ContentType: "text/csv; charset=utf-8",
		Filename:    fmt.Sprintf("stock-sync-%s.csv", detail.Sync.SyncNumber),
	}, nil
}

func describeGood(view *domain.GoodView, fallbackID string) string {
	if view == nil {
		return fallbackID
	}
	parts := make([]string, 0, 3)
	for _, attr := range []*domain.Attribute{view.WoodType, view.EndGrain, view.Length} {
		if attr != nil {
			parts = append(parts, attr.Name)
		}
	}
	if len(parts) == 0 {
		return view.ID
	}
	return strings.Join(parts, " / ")
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

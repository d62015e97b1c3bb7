package report

import (
	"errors"
	"testing"
	"time"

	"github.com/julisunkan/ps/internal/models"
)

var reportNow = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

func fixtureData() models.TenantData {
	return models.TenantData{
		Sales: []models.Sale{
			{SaleID: "old", Total: 100, PaymentMethod: "card", CreatedAt: reportNow.Add(-10 * 24 * time.Hour)},
			{SaleID: "mid", Total: 40, PaymentMethod: "cash", CreatedAt: reportNow.Add(-2 * 24 * time.Hour)},
			{SaleID: "recent", Total: 25, CreatedAt: reportNow.Add(-12 * time.Hour)},
		},
		Expenses: []models.Expense{
			{ExpenseID: "rent", Amount: 30, CreatedAt: reportNow.Add(-2 * 24 * time.Hour)},
			{ExpenseID: "supplies", Amount: 5, CreatedAt: reportNow.Add(-20 * 24 * time.Hour)},
		},
	}
}

func TestWeeklyWindow(t *testing.T) {
	result, err := Build(fixtureData(), WindowWeekly, reportNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.TotalSales != 2 {
		t.Fatalf("expected 2 sales in weekly window, got %d", result.TotalSales)
	}
	if result.TotalRevenue != 65 {
		t.Fatalf("expected revenue 65, got %v", result.TotalRevenue)
	}
	for _, sale := range result.Sales {
		if sale.SaleID == "old" {
			t.Fatalf("sale outside window included")
		}
	}
	if result.TotalExpenses != 30 {
		t.Fatalf("expected expenses 30, got %v", result.TotalExpenses)
	}
	if result.NetProfit != result.TotalRevenue-result.TotalExpenses {
		t.Fatalf("net profit mismatch: %v", result.NetProfit)
	}
}

func TestDailyWindowStartsAtMidnight(t *testing.T) {
	result, err := Build(fixtureData(), WindowDaily, reportNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.TotalSales != 1 {
		t.Fatalf("expected 1 sale in daily window, got %d", result.TotalSales)
	}
	if result.Sales[0].SaleID != "recent" {
		t.Fatalf("expected the same-day sale, got %q", result.Sales[0].SaleID)
	}
	wantStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !result.StartDate.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, result.StartDate)
	}
	if !result.EndDate.Equal(reportNow) {
		t.Fatalf("expected end %v, got %v", reportNow, result.EndDate)
	}
}

func TestMonthlyWindow(t *testing.T) {
	result, err := Build(fixtureData(), WindowMonthly, reportNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.TotalSales != 3 {
		t.Fatalf("expected all 3 sales in monthly window, got %d", result.TotalSales)
	}
	if result.TotalExpenses != 35 {
		t.Fatalf("expected expenses 35, got %v", result.TotalExpenses)
	}
}

func TestPaymentMethodTotalsDefaultCash(t *testing.T) {
	result, err := Build(fixtureData(), WindowMonthly, reportNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PaymentMethods["card"] != 100 {
		t.Fatalf("expected card total 100, got %v", result.PaymentMethods["card"])
	}
	// the "recent" sale has no payment method and falls back to cash
	if result.PaymentMethods["cash"] != 65 {
		t.Fatalf("expected cash total 65, got %v", result.PaymentMethods["cash"])
	}
}

func TestWindowBoundaryInclusive(t *testing.T) {
	data := models.TenantData{
		Sales: []models.Sale{
			{SaleID: "edge", Total: 10, CreatedAt: reportNow.Add(-7 * 24 * time.Hour)},
		},
	}
	result, err := Build(data, WindowWeekly, reportNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.TotalSales != 1 {
		t.Fatalf("sale exactly at window start should be included")
	}
}

func TestUnknownWindowRejected(t *testing.T) {
	_, err := Build(fixtureData(), "yearly", reportNow)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	data := fixtureData()
	if _, err := Build(data, WindowWeekly, reportNow); err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(data.Sales) != 3 || len(data.Expenses) != 2 {
		t.Fatalf("input data mutated")
	}
}

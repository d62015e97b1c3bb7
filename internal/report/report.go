package report

import (
	"errors"
	"time"

	"github.com/julisunkan/ps/internal/models"
)

var ErrInvalidWindow = errors.New("invalid report window")

const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
)

type Report struct {
	Type           string             `json:"type"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	TotalRevenue   float64            `json:"total_revenue"`
	TotalSales     int                `json:"total_sales"`
	TotalExpenses  float64            `json:"total_expenses"`
	NetProfit      float64            `json:"net_profit"`
	PaymentMethods map[string]float64 `json:"payment_methods"`
	Sales          []models.Sale      `json:"sales"`
	Expenses       []models.Expense   `json:"expenses"`
}

// windowStart maps a window name to its inclusive lower bound:
// daily starts at midnight of the current calendar day, weekly and
// monthly reach back a fixed number of days from now.
func windowStart(window string, now time.Time) (time.Time, error) {
	switch window {
	case WindowDaily:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), nil
	case WindowWeekly:
		return now.Add(-7 * 24 * time.Hour), nil
	case WindowMonthly:
		return now.Add(-30 * 24 * time.Hour), nil
	default:
		return time.Time{}, ErrInvalidWindow
	}
}

// Build aggregates the tenant's sales and expenses that fall inside
// the window. It never mutates the input data.
func Build(data models.TenantData, window string, now time.Time) (Report, error) {
	start, err := windowStart(window, now)
	if err != nil {
		return Report{}, err
	}

	result := Report{
		Type:           window,
		StartDate:      start,
		EndDate:        now,
		PaymentMethods: make(map[string]float64),
		Sales:          []models.Sale{},
		Expenses:       []models.Expense{},
	}

	for _, sale := range data.Sales {
		if !inWindow(sale.CreatedAt, start, now) {
			continue
		}
		result.Sales = append(result.Sales, sale)
		result.TotalRevenue += sale.Total
		result.TotalSales++
		method := sale.PaymentMethod
		if method == "" {
			method = "cash"
		}
		result.PaymentMethods[method] += sale.Total
	}

	for _, expense := range data.Expenses {
		if !inWindow(expense.CreatedAt, start, now) {
			continue
		}
		result.Expenses = append(result.Expenses, expense)
		result.TotalExpenses += expense.Amount
	}

	result.NetProfit = result.TotalRevenue - result.TotalExpenses
	return result, nil
}

func inWindow(at, start, end time.Time) bool {
	return !at.Before(start) && !at.After(end)
}

package domain

import (
	"context"
	"errors"
	"time"
)

const (
	SummaryWindowDays  = 90
	CustomerWindowDays = 365
	UntitledCustomer   = "Untitled"
)

type Service interface {
	Summary(ctx context.Context, req RangeRequest) (*Summary, error)
	ByCustomer(ctx context.Context, req RangeRequest) (*CustomerReport, error)
	ExportByCustomer(ctx context.Context, req RangeRequest) ([]byte, error)
}

// RangeRequest bounds a report by calendar day. Both ends are inclusive and
// default per report when nil.
type RangeRequest struct {
	From *time.Time
	To   *time.Time
}

type Summary struct {
	From                   string `json:"from"`
	To                     string `json:"to"`
	TotalCompletedBookings int    `json:"total_completed_bookings"`
	TotalRevenue           string `json:"total_revenue"`
	DistinctCustomers      int    `json:"distinct_customers"`
}

type CustomerRevenue struct {
	Customer string `json:"customer"`
	Count    int    `json:"count"`
	Revenue  string `json:"revenue"`
}

type CustomerReport struct {
	From      string            `json:"from"`
	To        string            `json:"to"`
	Customers []CustomerRevenue `json:"customers"`
}

var (
	ErrInvalidOwner = errors.New("invalid_owner")
	ErrInvalidRange = errors.New("invalid_range")
)

package models

import "time"

// Scope distinguishes organization-level activity from individual worker activity.
type Scope string

const (
	ScopeOrg    Scope = "ORG"
	ScopeWorker Scope = "WORKER"
)

func (s Scope) Valid() bool {
	return s == ScopeOrg || s == ScopeWorker
}

const (
	SourceManual      = "MANUAL"
	SourceMonthlyAuto = "MONTHLY_AUTO"
)

type EmissionFactor struct {
	ID             int64
	Type           string
	Category       string
	Scope          Scope
	EmissionFactor float64
	Unit           string
	Price          *float64 // nil when the factor is not priced
	PriceUnit      string
}

type Company struct {
	ID          int64
	Name        string
	Email       string
	TotalCarbon float64
	Points      int
	CreatedAt   time.Time
}

type Worker struct {
	ID         int64
	Name       string
	Department string
	CompanyID  int64
	CreatedAt  time.Time
}

type Emission struct {
	ID          int64
	Type        string
	Category    string
	Amount      float64
	Unit        string
	CarbonValue float64
	Cost        *float64
	Date        time.Time
	Scope       Scope
	Source      string
	BatchID     string // set on rows generated by a scheduled run
	CompanyID   int64
	WorkerID    *int64 // nullable for organization-level rows
	CreatedAt   time.Time
}

type MonthlyEmission struct {
	ID          int64
	CompanyID   int64
	Month       time.Time // first instant of the calendar month, stored in UTC
	TotalCarbon float64
}

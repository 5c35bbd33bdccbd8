package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
)

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func pgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func pgDate(d time.Time) pgtype.Date {
	return pgtype.Date{Time: d, Valid: true}
}

// civilDate truncates t to its calendar day in loc, expressed as UTC
// midnight the way pgx scans DATE columns.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysUntil counts whole days from today to d; negative once d has passed.
func daysUntil(today time.Time, d pgtype.Date) int {
	return int(d.Time.Sub(today).Hours() / 24)
}

// freshness derives a tracking status from expiry proximity.
func freshness(today time.Time, expiration pgtype.Date, nearDays int) string {
	days := daysUntil(today, expiration)
	switch {
	case days < 0:
		return enum.TrackingStatusExpired
	case days <= nearDays:
		return enum.TrackingStatusWarning
	}
	return enum.TrackingStatusFresh
}

// nextWeekday is the first Monday-to-Friday date after day.
func nextWeekday(day time.Time) time.Time {
	next := day.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

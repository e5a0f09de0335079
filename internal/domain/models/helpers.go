package models

import (
	"database/sql"
	"time"
)

// NullStringToPtr converts a sql.NullString to a *string
func NullStringToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// NullInt64ToPtr converts a sql.NullInt64 to a *int
func NullInt64ToPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	val := int(ni.Int64)
	return &val
}

// NullTimeToPtr converts a sql.NullTime to a *time.Time
func NullTimeToPtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}

package database

import "database/sql"

// Placeholder renders class attributes that a row does not have.
const Placeholder = "-"

// nullInt64ToPtr converts a sql.NullInt64 to a pointer (nil if not valid)
func nullInt64ToPtr(n sql.NullInt64) *int64 {
	if n.Valid {
		return &n.Int64
	}
	return nil
}

// ptrToNullInt64 converts an optional id to a nullable column value
func ptrToNullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// nullStringValue converts a sql.NullString to a string (empty if not valid)
func nullStringValue(n sql.NullString) string {
	if n.Valid {
		return n.String
	}
	return ""
}

// orPlaceholder returns the string, or Placeholder when NULL or empty
func orPlaceholder(n sql.NullString) string {
	if n.Valid && n.String != "" {
		return n.String
	}
	return Placeholder
}

// stringToNull stores empty optional text as NULL
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// classLabel joins class name and section ("10" + "A" -> "10A"); Placeholder
// when the class could not be resolved.
func classLabel(name, section sql.NullString) string {
	if !name.Valid {
		return Placeholder
	}
	return name.String + nullStringValue(section)
}

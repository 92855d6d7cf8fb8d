package database

import (
	"fmt"
	"strings"
)

// Driver represents a database backend type.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// DetectDriver parses a connection string and returns the driver type.
// Empty URLs and bare file paths select SQLite.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "mysql://"):
		return DriverMySQL
	default:
		return DriverSQLite
	}
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	switch d {
	case DriverPostgres, DriverSQLite, DriverMySQL:
		return true
	default:
		return false
	}
}

// Placeholder returns the bind parameter marker for the n-th argument (1-based).
func (d Driver) Placeholder(n int) string {
	if d == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

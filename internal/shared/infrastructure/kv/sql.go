package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/database"
)

// TableName is the table SQLStore keeps its values in.
const TableName = "homework_kv"

// SQLStore keeps values in a two-column table on any supported driver.
type SQLStore struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLStore creates the backing table if needed.
func NewSQLStore(ctx context.Context, conn database.Connection) (*SQLStore, error) {
	s := &SQLStore{conn: conn, now: time.Now}
	if _, err := conn.Exec(ctx, createTableSQL(conn.Driver())); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", TableName, err)
	}
	return s, nil
}

func createTableSQL(d database.Driver) string {
	valueType := "TEXT"
	if d == database.DriverMySQL {
		valueType = "LONGTEXT"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	store_key VARCHAR(191) NOT NULL PRIMARY KEY,
	store_value %s NOT NULL,
	updated_at BIGINT NOT NULL
)`, TableName, valueType)
}

func upsertSQL(d database.Driver) string {
	if d == database.DriverMySQL {
		return `INSERT INTO ` + TableName + ` (store_key, store_value, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE store_value = VALUES(store_value), updated_at = VALUES(updated_at)`
	}
	return fmt.Sprintf(`INSERT INTO %s (store_key, store_value, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = excluded.updated_at`,
		TableName, d.Placeholder(1), d.Placeholder(2), d.Placeholder(3))
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT store_value FROM %s WHERE store_key = %s`,
		TableName, s.conn.Driver().Placeholder(1))

	var value string
	err := s.conn.QueryRow(ctx, query, key).Scan(&value)
	if database.IsNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.Exec(ctx, upsertSQL(s.conn.Driver()), key, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

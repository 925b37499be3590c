package db

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
)

// SQLServerClient manages the connection to SQL Server
type SQLServerClient struct {
	db *sql.DB
}

// NewSQLServerClient connects with a sqlserver:// URL.
func NewSQLServerClient(ctx context.Context, connString string) (*SQLServerClient, error) {
	connector, err := mssql.NewConnector(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLServerClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLServerClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLServerClient) GetDB() *sql.DB {
	return c.db
}

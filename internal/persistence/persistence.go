// Package persistence abstracts the quality-score sink. The production
// sink is the relational store behind the Sink interface; that storage
// layer's schema and access patterns are out of scope beyond the interface
// boundary, but the concrete adapter in this package implements it against
// Postgres for deployments that want one.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Sink receives one batched quality score for a data flow.
type Sink interface {
	Publish(ctx context.Context, dataFlowID uint32, quality int) error
	Close() error
}

// PostgresConfig configures NewPostgresSink.
type PostgresConfig struct {
	Address  string
	Username string
	Password string
	Database string
}

func (c PostgresConfig) dsn() string {
	database := c.Database
	if database == "" {
		database = "dataflowdb"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable", c.Address, c.Username, c.Password, database)
}

// PostgresSink implements Sink with the same UPDATE statement the source
// pipeline issues against its dataflows table.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens and pings a Postgres connection pool.
func NewPostgresSink(cfg PostgresConfig) (*PostgresSink, error) {
	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("persistence: open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("persistence: ping postgres: %w", err)
	}

	return &PostgresSink{db: db}, nil
}

// Publish updates the quality column for dataFlowID, matching the source
// pipeline's "UPDATE dataflows SET quality = ? WHERE dataflowId = ?".
func (p *PostgresSink) Publish(ctx context.Context, dataFlowID uint32, quality int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE dataflows SET quality = $1 WHERE "dataflowId" = $2`, quality, dataFlowID)
	if err != nil {
		return fmt.Errorf("persistence: update quality for data flow %d: %w", dataFlowID, err)
	}
	return nil
}

func (p *PostgresSink) Close() error {
	return p.db.Close()
}

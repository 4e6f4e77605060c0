package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/config"
	_ "github.com/lib/pq"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GORM DB access
	GetDB() interface{} // Returns *gorm.DB for GORMStore, *sql.DB for PostgreSQLStore
}

// PostgreSQLStore is a plain database/sql store used by the ops CLIs for
// read-only ledger reports, where pulling in the full GORM stack is overkill.
type PostgreSQLStore struct {
	db *sql.DB
}

func Start() (*PostgreSQLStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	connectStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME, getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		fmt.Println("Unable to Start PostgresSQL Databse.")
		return nil, err
	}

	log.Println("Successfully connected to PostgresSQL Database.")
	return &PostgreSQLStore{
		db: db,
	}, nil
}

func (s *PostgreSQLStore) Init() error {
	// Schema is owned by the GORM store; nothing to migrate here.
	return nil
}

func (s *PostgreSQLStore) Close() error {
	log.Println("Closing PostgresSQL Database.")
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgreSQLStore) GetDB() interface{} {
	return s.db
}

// LedgerCount holds one row of the per-provider, per-status ledger report
type LedgerCount struct {
	Provider string
	Status   string
	Count    int64
	Amount   float64
}

// LedgerReport aggregates payment counts and amounts by provider and status.
// Used by cmd/reconcile to print a reconciliation summary.
func (s *PostgreSQLStore) LedgerReport() ([]LedgerCount, error) {
	rows, err := s.db.Query(`
		SELECT provider, status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments
		GROUP BY provider, status
		ORDER BY provider, status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []LedgerCount
	for rows.Next() {
		var lc LedgerCount
		if err := rows.Scan(&lc.Provider, &lc.Status, &lc.Count, &lc.Amount); err != nil {
			return nil, err
		}
		report = append(report, lc)
	}
	return report, rows.Err()
}

// StalePendingReferences returns provider references of payments that are
// still pending after the given number of minutes.
func (s *PostgreSQLStore) StalePendingReferences(olderThanMinutes int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT provider_reference FROM payments
		WHERE status = 'pending' AND created_at < NOW() - ($1 || ' minutes')::interval
		ORDER BY created_at`, olderThanMinutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

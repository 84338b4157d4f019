package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// Lead is one captured visitor lead with its funnel answers.
type Lead struct {
	ID          int64     `json:"id"`
	Event       string    `json:"event"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Domain      string    `json:"domain"`
	Subdomain   string    `json:"subdomain"`
	Role        string    `json:"role"`
	Requirement string    `json:"requirement"`
	CreatedAt   time.Time `json:"createdAt"`
}

// New opens (creating if needed) the sqlite lead store at path.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite handles one writer; keep the pool small
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Lead database connected")

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS leads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			domain TEXT NOT NULL DEFAULT '',
			subdomain TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			requirement TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
		CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create leads table: %w", err)
	}

	log.Println("✅ Database initialized successfully")
	return nil
}

// InsertLead appends one lead row.
func (db *DB) InsertLead(ctx context.Context, lead *Lead) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO leads (event, name, email, domain, subdomain, role, requirement, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.Event, lead.Name, lead.Email, lead.Domain, lead.Subdomain, lead.Role, lead.Requirement,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	lead.ID, _ = res.LastInsertId()
	return nil
}

// RecentLeads returns up to limit leads, newest first.
func (db *DB) RecentLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, event, name, email, domain, subdomain, role, requirement, created_at
		FROM leads ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Event, &l.Name, &l.Email, &l.Domain, &l.Subdomain, &l.Role, &l.Requirement, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// CountLeads reports the total number of stored leads.
func (db *DB) CountLeads(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, err
}

package storage

import (
	"backend/models"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Set connection pool settings optimized for light server load
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	if err := ensureAuthTables(db); err != nil {
		log.Fatal("Failed to create auth tables:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// ensureAuthTables creates the plumbing tables the database/sql layer
// owns. Domain tables (rfps, vendors, proposals) are migrated by GORM.
func ensureAuthTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'buyer',
			suspended BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS session (
			session_id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			ip_address TEXT NOT NULL DEFAULT '',
			host_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id SERIAL PRIMARY KEY,
			event_context TEXT NOT NULL,
			event_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_name TEXT NOT NULL DEFAULT '',
			entity_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSession saves a new session for a user. Sessions expire after 15
// days, matching the refresh-token lifetime.
func SaveSession(db *sql.DB, session *models.Session) error {
	query := `
		INSERT INTO session (session_id, user_id, ip_address, host_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := db.Exec(query,
		session.SessionID,
		session.UserID,
		session.IPAddress,
		session.HostName,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSessionByID fetches an unexpired session row.
func GetSessionByID(db *sql.DB, sessionID string) (*models.Session, error) {
	var session models.Session
	query := `
		SELECT session_id, user_id, ip_address, host_name, created_at, expires_at
		FROM session
		WHERE session_id = $1 AND expires_at > NOW()`
	err := db.QueryRow(query, sessionID).Scan(
		&session.SessionID,
		&session.UserID,
		&session.IPAddress,
		&session.HostName,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUserBySessionID resolves the user owning an unexpired session.
func GetUserBySessionID(db *sql.DB, sessionID string) (*models.User, error) {
	var user models.User
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.password, u.role, u.suspended, u.created_at, u.updated_at
		FROM users u
		JOIN session s ON s.user_id = u.id
		WHERE s.session_id = $1 AND s.expires_at > NOW()`
	err := db.QueryRow(query, sessionID).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Password,
		&user.Role,
		&user.Suspended,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail fetches a user by email address.
func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, first_name, last_name, email, password, role, suspended, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)`
	err := db.QueryRow(query, email).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Password,
		&user.Role,
		&user.Suspended,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteSession removes a single session (logout).
func DeleteSession(db *sql.DB, sessionID string) error {
	_, err := db.Exec(`DELETE FROM session WHERE session_id = $1`, sessionID)
	return err
}

// CleanupExpiredSessions removes sessions past their expiry. Run daily
// by the maintenance cron.
func CleanupExpiredSessions(db *sql.DB) error {
	res, err := db.Exec(`DELETE FROM session WHERE expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired sessions: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		log.Printf("Cleaned up %d expired session(s)", rows)
	}
	return nil
}

// SaveActivityLog inserts an audit row. Failures are the caller's to log;
// audit writes must never fail a request.
func SaveActivityLog(db *sql.DB, entry models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (event_context, event_name, description, user_name, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := db.Exec(query,
		entry.EventContext,
		entry.EventName,
		entry.Description,
		entry.UserName,
		entry.EntityID,
		entry.CreatedAt,
	)
	return err
}

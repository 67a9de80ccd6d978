package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the idempotent DDL for every table the service owns.  The
// unique keys on users.email and users.voter_id are what make voter
// promotion an UPDATE: inserting a second row for an activated voter would
// collide with the provisioned one.  voter_id is NULL for admins, and MySQL
// allows any number of NULLs under a UNIQUE key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email                VARCHAR(255) NOT NULL,
		password_hash        VARCHAR(255) NULL,
		role                 ENUM('voter','admin') NOT NULL DEFAULT 'voter',
		has_account          TINYINT(1) NOT NULL DEFAULT 0,
		name                 VARCHAR(255) NOT NULL DEFAULT '',
		voter_id             CHAR(4) NULL,
		full_name            VARCHAR(255) NOT NULL DEFAULT '',
		date_of_birth        VARCHAR(10) NOT NULL DEFAULT '',
		address              TEXT NULL,
		phone_no             VARCHAR(32) NOT NULL DEFAULT '',
		branch_name          VARCHAR(255) NOT NULL DEFAULT '',
		photo_url            VARCHAR(512) NOT NULL DEFAULT '',
		photo_data           MEDIUMTEXT NULL,
		fingerprint_template MEDIUMTEXT NULL,
		account_created_at   DATETIME NULL,
		created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_voter_id (voter_id),
		KEY idx_users_role (role),
		KEY idx_users_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS otp_codes (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		voter_id    CHAR(4) NOT NULL,
		email       VARCHAR(255) NOT NULL,
		code        CHAR(6) NOT NULL,
		issued_at   DATETIME(6) NOT NULL,
		expires_at  DATETIME(6) NOT NULL,
		verified    TINYINT(1) NOT NULL DEFAULT 0,
		verified_at DATETIME(6) NULL,
		KEY idx_otp_voter (voter_id, verified)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		message    TEXT NOT NULL,
		created_by BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_notifications_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reports (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		reported_voter_id VARCHAR(32) NOT NULL,
		reported_by       BIGINT UNSIGNED NOT NULL,
		reporter_email    VARCHAR(255) NOT NULL DEFAULT '',
		error_type        VARCHAR(64) NOT NULL,
		description       TEXT NULL,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_reports_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

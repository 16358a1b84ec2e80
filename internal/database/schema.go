package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// migrations are applied in order on every start. Each statement must be
// idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		first_name    VARCHAR(100)    NOT NULL,
		last_name     VARCHAR(100)    NOT NULL,
		phone         VARCHAR(32)     NOT NULL DEFAULT '',
		country       VARCHAR(100)    NOT NULL DEFAULT '',
		national_id   VARCHAR(64)     NULL,
		role          ENUM('customer','admin') NOT NULL DEFAULT 'customer',
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_national_id (national_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY ix_refresh_expires (expires_at),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS offerings (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name            VARCHAR(255)    NOT NULL,
		slug            VARCHAR(255)    NOT NULL,
		location        VARCHAR(255)    NOT NULL,
		capacity        INT             NOT NULL,
		available_seats INT             NOT NULL,
		slot_date       DATE            NOT NULL,
		slot_time       VARCHAR(8)      NOT NULL,
		contact_info    VARCHAR(255)    NOT NULL DEFAULT '',
		price_cents     INT UNSIGNED    NOT NULL DEFAULT 0,
		created_by      BIGINT UNSIGNED NOT NULL,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY ix_offerings_name (name),
		KEY ix_offerings_slug (slug),
		KEY ix_offerings_location (location),
		CONSTRAINT ck_offerings_seats CHECK (available_seats >= 0 AND available_seats <= capacity),
		CONSTRAINT fk_offerings_creator FOREIGN KEY (created_by) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id     BIGINT UNSIGNED NOT NULL,
		offering_id BIGINT UNSIGNED NOT NULL,
		slot_date   DATE            NOT NULL,
		slot_time   VARCHAR(8)      NOT NULL,
		seat_label  VARCHAR(32)     NOT NULL,
		price_cents INT UNSIGNED    NOT NULL DEFAULT 0,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_reservation_seat (offering_id, slot_date, slot_time, seat_label),
		KEY ix_reservations_user (user_id, created_at),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_reservations_offering FOREIGN KEY (offering_id) REFERENCES offerings(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS carts (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_carts_user (user_id),
		CONSTRAINT fk_carts_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS cart_items (
		seq         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id          CHAR(36)        NOT NULL,
		cart_id     BIGINT UNSIGNED NOT NULL,
		offering_id BIGINT UNSIGNED NOT NULL,
		slot_date   DATE            NOT NULL,
		slot_time   VARCHAR(8)      NOT NULL,
		seat_label  VARCHAR(32)     NOT NULL,
		price_cents INT UNSIGNED    NOT NULL DEFAULT 0,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_cart_items_id (id),
		KEY ix_cart_items_cart (cart_id, seq),
		CONSTRAINT fk_cart_items_cart FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE,
		CONSTRAINT fk_cart_items_offering FOREIGN KEY (offering_id) REFERENCES offerings(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	logrus.WithField("statements", len(migrations)).Info("database schema is up to date")
	return nil
}

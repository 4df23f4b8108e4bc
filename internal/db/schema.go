package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY,
    email      TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL DEFAULT '',
    role       TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('admin', 'staff', 'accounting', 'student')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory_items (
    id                     INTEGER PRIMARY KEY,
    name                   TEXT NOT NULL DEFAULT '',
    status                 TEXT NOT NULL DEFAULT 'IN_STOCK'
                           CHECK (status IN ('IN_STOCK', 'ASSIGNED', 'SHIPPED', 'SOLD', 'RETURNED')),
    is_self_sourced        INTEGER NOT NULL DEFAULT 0,
    admin_id               INTEGER REFERENCES users(id) ON DELETE SET NULL,
    assigned_to_user_id    INTEGER REFERENCES users(id) ON DELETE SET NULL,
    supplier               TEXT,
    supplier_name          TEXT,
    supplier_address       TEXT,
    supplier_occupation    TEXT,
    supplier_age           INTEGER CHECK (supplier_age IS NULL OR supplier_age > 0),
    id_verification_method TEXT,
    purchase_date          DATETIME,
    cost_price             TEXT,
    received_at            DATETIME,
    note                   TEXT,
    photo                  BLOB,
    thumbnail              BLOB,
    created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inventory_items_assigned
    ON inventory_items(assigned_to_user_id);

CREATE TABLE IF NOT EXISTS item_events (
    id           INTEGER PRIMARY KEY,
    item_id      INTEGER NOT NULL REFERENCES inventory_items(id) ON DELETE CASCADE,
    from_status  TEXT,
    to_status    TEXT NOT NULL,
    from_user_id INTEGER,
    to_user_id   INTEGER,
    actor_id     INTEGER,
    note         TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS purchase_requests (
    id              INTEGER PRIMARY KEY,
    user_id         INTEGER NOT NULL REFERENCES users(id),
    status          TEXT NOT NULL DEFAULT 'pending',
    tracking_number TEXT,
    amount          TEXT NOT NULL DEFAULT '0',
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS purchase_request_items (
    request_id INTEGER NOT NULL REFERENCES purchase_requests(id) ON DELETE CASCADE,
    item_id    INTEGER NOT NULL REFERENCES inventory_items(id) ON DELETE CASCADE,
    PRIMARY KEY (request_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_purchase_request_items_item
    ON purchase_request_items(item_id);

CREATE TABLE IF NOT EXISTS products (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    stock      INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS restock_subscriptions (
    id               INTEGER PRIMARY KEY,
    product_id       INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    email            TEXT NOT NULL,
    user_id          INTEGER REFERENCES users(id) ON DELETE SET NULL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_notified_at DATETIME,
    UNIQUE (product_id, email)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

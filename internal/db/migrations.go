package db

import (
	"database/sql"
	"fmt"
)

// Items use Snowflake IDs (no AUTOINCREMENT). Timestamps are fixed-width UTC text
// so lexical order matches time order.
const baseSchema = `
CREATE TABLE IF NOT EXISTS items (
  id INTEGER PRIMARY KEY,
  feed_source TEXT NOT NULL,
  title TEXT NOT NULL,
  link TEXT NOT NULL DEFAULT '',
  verdict INTEGER NOT NULL DEFAULT -1,
  user_label INTEGER,
  description TEXT NOT NULL DEFAULT '',
  author TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  comments TEXT NOT NULL DEFAULT '',
  enclosure TEXT NOT NULL DEFAULT '',
  guid TEXT NOT NULL DEFAULT '',
  pub_date TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_items_feed_source_title ON items(feed_source, title);
CREATE INDEX IF NOT EXISTS ix_items_feed_source_created_at_verdict ON items(feed_source, created_at, verdict);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: user_label index for relabel statistics
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS ix_items_user_label ON items(user_label)`); err != nil {
		return fmt.Errorf("create ix_items_user_label: %w", err)
	}
	return nil
}

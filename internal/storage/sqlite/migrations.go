package sqlite

import "database/sql"

// schema sets up the database. It runs on startup and is idempotent.
// Child tables carry a position column so that members, options, messages
// and bill items come back in the order they were added.
// All timestamps are Unix seconds.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    google_id TEXT UNIQUE,
    photo TEXT NOT NULL DEFAULT '',
    notify_enabled INTEGER NOT NULL DEFAULT 1,
    notify_h3 INTEGER NOT NULL DEFAULT 1,
    notify_h1 INTEGER NOT NULL DEFAULT 1,
    notify_updates INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    code TEXT PRIMARY KEY,
    owner_user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    deadline TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    final_at INTEGER,
    final_location TEXT,
    bill_total INTEGER NOT NULL DEFAULT 0,
    split_mode TEXT NOT NULL DEFAULT 'EVEN',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    finalized_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS event_members (
    id TEXT PRIMARY KEY,
    event_code TEXT NOT NULL,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    joined_at INTEGER NOT NULL,
    position INTEGER NOT NULL,
    UNIQUE (event_code, user_id),
    FOREIGN KEY (event_code) REFERENCES events(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS date_options (
    id TEXT PRIMARY KEY,
    event_code TEXT NOT NULL,
    at INTEGER NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (event_code) REFERENCES events(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS location_options (
    id TEXT PRIMARY KEY,
    event_code TEXT NOT NULL,
    label TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (event_code) REFERENCES events(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS votes (
    event_code TEXT NOT NULL,
    category TEXT NOT NULL,
    member_id TEXT NOT NULL,
    option_id TEXT NOT NULL,
    PRIMARY KEY (event_code, category, member_id),
    FOREIGN KEY (event_code) REFERENCES events(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    event_code TEXT NOT NULL,
    member_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    text TEXT NOT NULL,
    at INTEGER NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (event_code) REFERENCES events(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bill_items (
    id TEXT PRIMARY KEY,
    event_code TEXT NOT NULL,
    name TEXT NOT NULL,
    cost INTEGER NOT NULL,
    assignee_member_id TEXT NOT NULL,
    created_by TEXT NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (event_code) REFERENCES events(code) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_event_members_user_id ON event_members(user_id);
CREATE INDEX IF NOT EXISTS idx_events_status_final_at ON events(status, final_at);
CREATE INDEX IF NOT EXISTS idx_date_options_event ON date_options(event_code);
CREATE INDEX IF NOT EXISTS idx_location_options_event ON location_options(event_code);
CREATE INDEX IF NOT EXISTS idx_messages_event ON messages(event_code);
CREATE INDEX IF NOT EXISTS idx_bill_items_event ON bill_items(event_code);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

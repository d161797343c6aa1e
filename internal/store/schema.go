package store

const schema = `
CREATE TABLE IF NOT EXISTS packages (
    name TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    install_date TEXT NOT NULL DEFAULT '',
    explicit_install BOOLEAN NOT NULL DEFAULT 0,
    last_seen TEXT
);

CREATE TABLE IF NOT EXISTS usage_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    package_name TEXT NOT NULL,
    event_type TEXT NOT NULL,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_package ON usage_events(package_name);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON usage_events(timestamp);
`

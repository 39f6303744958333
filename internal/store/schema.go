package store

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS app_visibility (
    package_name TEXT PRIMARY KEY,
    app_name TEXT,
    visible INTEGER
);

CREATE TABLE IF NOT EXISTS resource_logs (
    timestamp INTEGER,
    cpu_usage REAL,
    ram_usage REAL,
    storage_usage REAL
);

CREATE INDEX IF NOT EXISTS idx_resource_logs_timestamp ON resource_logs(timestamp);
`

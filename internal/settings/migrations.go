package settings

import "feedwatch/internal/core"

// Migration001CreateOptions creates the key/value options table
var Migration001CreateOptions = core.Migration{
	Version:     1,
	Name:        "create_options",
	Description: "Create key/value options table with optional expiry for transients",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS options (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_options_expires_at ON options(expires_at);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_options_expires_at;
		DROP TABLE IF EXISTS options;
	`,
}

// Migrations returns all settings migrations in order
func Migrations() []core.Migration {
	return []core.Migration{
		Migration001CreateOptions,
	}
}

package migrations

import "embed"

// SQLite embeds the profile store migrations.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

package migrations

import "embed"

// FS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var FS embed.FS

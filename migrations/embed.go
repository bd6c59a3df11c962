// Package migrations embeds the SQL schema of every service. Each service owns one
// directory and applies it with db.Migrator.
package migrations

import "embed"

//go:embed booking/*.sql directory/*.sql notification/*.sql analytics/*.sql auth/*.sql
var FS embed.FS

// Services lists the directories in FS, one per database owner.
var Services = []string{"booking", "directory", "notification", "analytics", "auth"}

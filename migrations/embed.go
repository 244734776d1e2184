// Package migrations embeds the SQL schema for every supported dialect.
package migrations

import "embed"

// FS holds <dialect>/<version>_<name>.(up|down).sql files.
//
//go:embed mysql/*.sql postgres/*.sql
var FS embed.FS

// Package migrations embeds the SQL migrations for the sqlite message store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

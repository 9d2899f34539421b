// Package migrations embeds the numbered SQL files applied by the migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

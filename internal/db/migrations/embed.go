package migrations

import "embed"

// FS holds the ordered up/down migrations applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS

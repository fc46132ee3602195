// Package migrations holds the schema as numbered SQL files, embedded so the
// server binary can migrate without a source checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

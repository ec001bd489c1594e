// Package migrations embeds the goose SQL migrations so the server and the
// integration tests apply exactly the same schema.
package migrations

import "embed"

// FS holds the *.sql migration files. Pass it to goose.NewProvider.
//
//go:embed *.sql
var FS embed.FS

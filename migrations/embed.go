// Package migrations embeds the agenda schema so the server binary can
// create and upgrade clinic schemas without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS

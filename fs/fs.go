// Package appfs holds the files embedded in the binaries.
package appfs

import "embed"

// FS contains the SQL migrations under "migrations".
//go:embed migrations/*.sql
var FS embed.FS

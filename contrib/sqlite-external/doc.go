// Package sqliteexternal provides the optional CGO SQLite driver.
//
// This package is part of the main github.com/FocuswithJustin/Galley
// module and wires up github.com/mattn/go-sqlite3 when the cgo_sqlite
// build tag is set:
//
//	import _ "github.com/FocuswithJustin/Galley/contrib/sqlite-external"
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite
//
// By default the recipe index uses the pure Go modernc.org/sqlite
// driver, which needs no CGO and cross-compiles cleanly. See
// github.com/FocuswithJustin/Galley/core/sqlite for the selection
// logic.
//
// Use the CGO driver when the index grows large enough that query
// speed matters, or when the build already requires CGO. Otherwise the
// pure Go driver keeps deployment to a single static binary.
package sqliteexternal

//go:build !sqlite_cgo

package db

// Driver used: modernc.org/sqlite (pure Go, no C compiler required).
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

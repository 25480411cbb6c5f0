package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"happy-sandwich/services"
)

// Open picks a store from the connection URL, connects and applies migrations.
//
//	postgres://..., postgresql://..., postgresql+psycopg://...  -> PostgreSQL
//	sqlite://path/to/file.db, sqlite:///abs/file.db, sqlite::memory: -> SQLite
func Open(ctx context.Context, url string, log *slog.Logger) (services.Store, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:"):
		return OpenSQLite(ctx, sqlitePath(url))
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql"):
		return OpenPostgres(ctx, postgresURL(url), log)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", redact(url))
	}
}

func sqlitePath(url string) string {
	path := strings.TrimPrefix(url, "sqlite:")
	path = strings.TrimPrefix(path, "//")
	if path == "" {
		return ":memory:"
	}
	return path
}

// postgresURL drops a "+driver" suffix such as postgresql+psycopg://.
func postgresURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if base, _, found := strings.Cut(scheme, "+"); found {
		scheme = base
	}
	return scheme + "://" + rest
}

// redact hides credentials before a URL is put in an error or log line.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

// timeLayout is fixed width so text comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", s, err)
	}
	return t.UTC(), nil
}

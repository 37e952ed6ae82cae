package database

import (
	"fmt"
	"strings"

	"github.com/xo/dburl"
)

// ConstructDatabaseURL combines a base URL with a database name.
// An empty name returns the base URL unchanged; sslmode=disable is added when
// no sslmode is given.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var databaseURL string

	if strings.Contains(baseURL, "?") {
		parts := strings.SplitN(baseURL, "?", 2)
		databaseURL = fmt.Sprintf("%s/%s?%s", parts[0], databaseName, parts[1])
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}

// NormalizeDatabaseURL accepts any postgres scheme alias dburl understands
// ("pg://", "pgsql://", "postgresql://") and returns a postgres:// URL pgx can parse
func NormalizeDatabaseURL(raw string) (string, error) {
	u, err := dburl.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	if u.Driver != "postgres" {
		return "", fmt.Errorf("unsupported database driver %q", u.Driver)
	}
	normalized := u.URL
	normalized.Scheme = "postgres"
	return normalized.String(), nil
}

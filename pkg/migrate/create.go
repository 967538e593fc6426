package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

const scaffold = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// MigrationName normalizes a free-form name into the filename slug accepted
// by ValidateFS.
func MigrationName(name string) (string, error) {
	safe := nameSanitizeRe.ReplaceAllString(strings.ToLower(name), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "migration name %q is empty after sanitizing", name)
	}
	return safe, nil
}

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql stamped with now
// in UTC. An existing file with the same version and name is never overwritten.
func CreateSQLMigration(dir, name string, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "migrations dir is required")
	}
	safe, err := MigrationName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("create migrations dir %q", dir))
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.UTC().Format(versionLayout), safe))
	file, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", pkgerrors.Newf(pkgerrors.CodeConflict, "migration already exists: %s", fullpath)
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("open migration %q", fullpath))
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, scaffold, safe); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("write migration %q", fullpath))
	}
	return fullpath, nil
}

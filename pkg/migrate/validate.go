package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// ValidateDir checks every SQL migration in dir and reports all problems at
// once: file names and versions, goose Up/Down markers, balanced statement
// blocks, and for create_<table>_table files a matching CREATE and DROP.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		version := m[1]
		if _, err := time.Parse(versionLayout, version); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("migration %q has an impossible timestamp", name))
		}
		if prev, ok := seen[version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name))
		}
		seen[version] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", full, err))
			continue
		}
		errs = multierr.Append(errs, checkBody(name, m[2], string(b)))
	}
	return errs
}

func checkBody(file, name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", file)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", file)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", file)
	}
	if begin, end := strings.Count(txt, "-- +goose StatementBegin"), strings.Count(txt, "-- +goose StatementEnd"); begin != end {
		return fmt.Errorf("migration %q has %d StatementBegin but %d StatementEnd", file, begin, end)
	}

	m := createTableRe.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	table := regexp.QuoteMeta(m[1])
	create := regexp.MustCompile(`CREATE TABLE IF NOT EXISTS\s+` + table + `\b`)
	drop := regexp.MustCompile(`DROP TABLE IF EXISTS\s+` + table + `\b`)
	if loc := create.FindStringIndex(txt); loc == nil || loc[0] > down {
		return fmt.Errorf("migration %q does not create table %s in its Up section", file, m[1])
	}
	if loc := drop.FindStringIndex(txt); loc == nil || loc[0] < down {
		return fmt.Errorf("migration %q does not drop table %s in its Down section", file, m[1])
	}
	return nil
}

// latestVersion returns the newest migration timestamp in dir, or the zero
// time when dir holds none.
func latestVersion(dir string) (time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var latest time.Time
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := time.Parse(versionLayout, m[1])
		if err == nil && v.After(latest) {
			latest = v
		}
	}
	return latest, nil
}

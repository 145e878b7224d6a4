package migrate

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
)

// Timestamped versions sort after any sequential ones goose could create.
const minTimestampVersion = 10000000000000

// ValidateDir collects dir the way goose does at runtime and checks that
// every SQL migration is timestamped and can be rolled back.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return fmt.Errorf("collect migrations in %q: %w", dir, err)
	}
	if len(migrations) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	for _, m := range migrations {
		if m.Version < minTimestampVersion {
			return fmt.Errorf("migration %q: version %d is not a YYYYMMDDHHMMSS timestamp", m.Source, m.Version)
		}
		if !strings.HasSuffix(m.Source, ".sql") {
			continue
		}
		if err := checkDirections(m.Source); err != nil {
			return err
		}
	}
	return nil
}

func checkDirections(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open migration %q: %w", path, err)
	}
	defer f.Close()

	var up, down bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "-- +goose Up":
			up = true
		case "-- +goose Down":
			if !up {
				return fmt.Errorf("migration %q declares Down before Up", path)
			}
			down = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read migration %q: %w", path, err)
	}
	if !up || !down {
		return fmt.Errorf("migration %q must declare both \"-- +goose Up\" and \"-- +goose Down\"", path)
	}
	return nil
}

// Command migrate manages the sessions schema with golang-migrate.
// The server also auto-applies pending migrations at startup; this tool
// exists for rollbacks, new migration files, and repairing dirty state.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "up":
		err = runUp(os.Args[2:])
	case "down":
		err = runDown(os.Args[2:])
	case "create":
		err = runCreate(os.Args[2:])
	case "force":
		err = runForce(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [args]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  up [n]        Apply all pending migrations, or the next n")
	fmt.Fprintln(os.Stderr, "  down [n]      Roll back all migrations, or the last n")
	fmt.Fprintln(os.Stderr, "  create <name> Create numbered up/down migration files")
	fmt.Fprintln(os.Stderr, "  force <ver>   Force the recorded version (repairs dirty state)")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintln(os.Stderr, "  DATABASE_URL  PostgreSQL connection string")
}

func runUp(args []string) error {
	return withMigrator(func(m *migrate.Migrate) error {
		if len(args) == 0 {
			return ignoreNoChange(m.Up())
		}
		steps, err := parseSteps(args[0])
		if err != nil {
			return err
		}
		return ignoreNoChange(m.Steps(steps))
	})
}

func runDown(args []string) error {
	return withMigrator(func(m *migrate.Migrate) error {
		if len(args) == 0 {
			return ignoreNoChange(m.Down())
		}
		steps, err := parseSteps(args[0])
		if err != nil {
			return err
		}
		return ignoreNoChange(m.Steps(-steps))
	})
}

func runForce(args []string) error {
	if len(args) == 0 {
		return errors.New("version number is required")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version: %s", args[0])
	}
	return withMigrator(func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return err
		}
		fmt.Printf("Forced version to %d\n", version)
		return nil
	})
}

// runCreate numbers new files sequentially (002, 003, ...) to match the
// versions automigrate records.
func runCreate(args []string) error {
	if len(args) == 0 {
		return errors.New("migration name is required")
	}
	name := sanitizeName(args[0])
	if name == "" {
		return errors.New("migration name must include at least one alphanumeric character")
	}

	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	next, err := nextVersion(dir)
	if err != nil {
		return err
	}

	base := fmt.Sprintf("%03d_%s", next, name)
	for _, f := range []struct{ path, body string }{
		{filepath.Join(dir, base+".up.sql"), "-- migrate up\n"},
		{filepath.Join(dir, base+".down.sql"), "-- migrate down\n"},
	} {
		if err := writeNewFile(f.path, f.body); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", f.path)
	}
	return nil
}

func nextVersion(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(prefix); err == nil && v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}

func withMigrator(fn func(*migrate.Migrate) error) error {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	dir, err := migrationsDir()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			fmt.Fprintf(os.Stderr, "source close error: %v\n", sourceErr)
		}
		if dbErr != nil {
			fmt.Fprintf(os.Stderr, "db close error: %v\n", dbErr)
		}
	}()

	return fn(m)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func migrationsDir() (string, error) {
	return filepath.Abs("migrations")
}

func parseSteps(value string) (int, error) {
	steps, err := strconv.Atoi(value)
	if err != nil || steps <= 0 {
		return 0, fmt.Errorf("invalid steps: %s", value)
	}
	return steps, nil
}

var nameCleaner = regexp.MustCompile(`[^a-z0-9_]+`)

func sanitizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = nameCleaner.ReplaceAllString(name, "")
	return strings.Trim(name, "_")
}

func writeNewFile(path, contents string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(contents)
	return err
}

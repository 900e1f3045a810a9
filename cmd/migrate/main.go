// Package main provides the PostgreSQL migration runner. SQLite stores migrate
// themselves on open.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/viper"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/migrations"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	v := viper.New()
	v.SetConfigFile(*configPath)
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("reading config: %v", err)
	}

	var dbCfg config.DatabaseConfig
	if sub := v.Sub("database"); sub != nil {
		if err := sub.Unmarshal(&dbCfg); err != nil {
			log.Fatalf("parsing database config: %v", err)
		}
	}

	version, dirty, changed, err := run(dbCfg.DSN(), *direction, *steps)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	elapsed := time.Since(start)
	if !changed {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, elapsed)
	} else {
		fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, version, dirty, elapsed)
	}
}

// run applies the embedded migrations to dsn. steps == 0 migrates all the way.
//
// Postcondition: changed is false when the schema was already at the target.
func run(dsn, direction string, steps int) (version uint, dirty, changed bool, err error) {
	if direction != "up" && direction != "down" {
		return 0, false, false, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, false, false, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return 0, false, false, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case direction == "up" && steps > 0:
		err = m.Steps(steps)
	case direction == "up":
		err = m.Up()
	case steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}
	changed = !errors.Is(err, migrate.ErrNoChange)
	if err != nil && changed {
		return 0, false, false, err
	}

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, changed, nil
	}
	return version, dirty, changed, err
}

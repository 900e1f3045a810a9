// Package main provides a CLI tool that loads monster templates into the
// monsters table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/monster"
	"github.com/cory-johannsen/arena/internal/storage/backend"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "content/monsters", "monster YAML directory; empty seeds the built-in set")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := backend.Open(ctx, &cfg)
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer store.Close()

	n, err := seed(ctx, store.Monsters, *dir)
	if err != nil {
		log.Fatalf("seeding monsters: %v", err)
	}

	fmt.Fprintf(os.Stdout, "seeded %d monsters into %s [%s]\n", n, store.Driver, time.Since(start))
}

// seed upserts every template in dir, or the built-in templates when dir is empty.
//
// Postcondition: Returns the number of templates written. Templates are checked
// for duplicate ids before anything is written.
func seed(ctx context.Context, repo backend.Monsters, dir string) (int, error) {
	templates := monster.DefaultTemplates()
	if dir != "" {
		loaded, err := monster.LoadTemplates(dir)
		if err != nil {
			return 0, err
		}
		templates = loaded
	}
	if _, err := monster.NewCatalog(templates); err != nil {
		return 0, err
	}
	for _, t := range templates {
		if err := repo.Upsert(ctx, t); err != nil {
			return 0, fmt.Errorf("upserting %q: %w", t.ID, err)
		}
	}
	return len(templates), nil
}

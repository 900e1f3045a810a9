// Package main provides a CLI tool that creates a player profile and prints a
// bearer token for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/storage"
	"github.com/cory-johannsen/arena/internal/storage/backend"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	name := flag.String("name", "", "player name (required)")
	weapons := flag.Int("weapons", 0, "number of equipped weapons to grant")
	flag.Parse()

	if *name == "" || *weapons < 0 {
		flag.Usage()
		os.Exit(1)
	}

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

	auth := gameserver.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	p, token, err := createPlayer(ctx, store.Players, auth, *name, *weapons)
	if err != nil {
		log.Fatalf("creating player %q: %v", *name, err)
	}

	fmt.Fprintf(os.Stdout, "created %s (#%d) hp=%d/%d weapons=%d [%s]\n%s\n",
		p.Name, p.ID, p.CurrentHP, p.MaxHP, *weapons, time.Since(start), token)
}

// createPlayer stores a fresh profile holding weapons equipped weapons and
// issues a token for it.
func createPlayer(ctx context.Context, repo backend.Players, auth *gameserver.Authenticator, name string, weapons int) (*character.Profile, string, error) {
	p, err := character.New(name)
	if err != nil {
		return nil, "", err
	}
	p, err = repo.Create(ctx, p)
	if err != nil {
		return nil, "", err
	}
	for i := range weapons {
		if err := repo.AddItem(ctx, p.ID, fmt.Sprintf("Training Sword %d", i+1), storage.ItemTypeWeapon, true); err != nil {
			return nil, "", fmt.Errorf("granting weapon: %w", err)
		}
	}
	token, err := auth.Issue(p.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}
	return p, token, nil
}

// Package backend opens the storage driver named in the configuration and
// exposes it through driver-neutral repositories.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/monster"
	"github.com/cory-johannsen/arena/internal/storage"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/storage/sqlite"
)

// Combats persists combat records.
type Combats interface {
	Snapshot(ctx context.Context, playerID int64) (character.Snapshot, error)
	Create(ctx context.Context, owner int64, status string, state []byte) (*storage.Combat, error)
	Get(ctx context.Context, id uuid.UUID, owner int64) (*storage.Combat, error)
	Active(ctx context.Context, owner int64) (*storage.Combat, error)
	WithCombat(ctx context.Context, id uuid.UUID, owner int64, fn storage.CombatFunc) error
}

// Players persists player profiles and their inventory.
type Players interface {
	Create(ctx context.Context, p *character.Profile) (*character.Profile, error)
	GetByID(ctx context.Context, id int64) (*character.Profile, error)
	AddItem(ctx context.Context, playerID int64, name, itemType string, equipped bool) error
	DistributeStat(ctx context.Context, playerID int64, stat character.Stat) (*character.Profile, error)
	Ledger(ctx context.Context, playerID int64) ([]storage.LedgerEntry, error)
}

// Monsters persists the monster catalog.
type Monsters interface {
	List(ctx context.Context) ([]*monster.Template, error)
	Upsert(ctx context.Context, t *monster.Template) error
}

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Driver   string
	Combats  Combats
	Players  Players
	Monsters Monsters

	health func(ctx context.Context, timeout time.Duration) error
	close  func()
}

// Open connects to the driver selected by cfg.Storage.Driver. SQLite stores are
// migrated on open; PostgreSQL expects cmd/migrate to have run.
//
// Precondition: cfg must have passed Validate.
// Postcondition: Returns a ready Backend or a non-nil error. Callers must Close it.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath, cfg.Combat.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &Backend{
			Driver:   config.DriverSQLite,
			Combats:  store,
			Players:  store.Players(),
			Monsters: store.Monsters(),
			health:   store.Health,
			close:    func() { _ = store.Close() },
		}, nil
	case config.DriverPostgres, "":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		return &Backend{
			Driver:   config.DriverPostgres,
			Combats:  postgres.NewCombatStore(pool.DB(), cfg.Combat.LockTimeout),
			Players:  postgres.NewPlayerRepository(pool.DB()),
			Monsters: postgres.NewMonsterRepository(pool.DB()),
			health:   pool.Health,
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Health checks that the database answers within timeout.
func (b *Backend) Health(ctx context.Context, timeout time.Duration) error {
	return b.health(ctx, timeout)
}

// Close releases the driver's resources.
func (b *Backend) Close() {
	b.close()
}

// LoadCatalog builds the monster catalog from dir when set, otherwise from the
// stored monsters. An empty result falls back to the built-in templates.
//
// Postcondition: Returns a non-nil Catalog or an error.
func (b *Backend) LoadCatalog(ctx context.Context, dir string) (*monster.Catalog, error) {
	var (
		templates []*monster.Template
		err       error
	)
	if dir != "" {
		templates, err = monster.LoadTemplates(dir)
	} else {
		templates, err = b.Monsters.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("loading monster templates: %w", err)
	}
	return monster.NewCatalog(templates)
}

package worlddb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tradecraft/internal/persistence"
	"tradecraft/internal/world"
)

// FileName is the registry database inside the worlds root.
const FileName = "worlds.db"

// ErrExists is returned when creating a world whose name is taken.
var ErrExists = errors.New("world already exists")

// Pose is the saved observer position and view rotation.
type Pose struct {
	X, Y, Z    float64
	Yaw, Pitch float64
}

// World is one row of the saved-world registry.
type World struct {
	Name      string
	ID        string
	Seed      int64
	CreatedAt time.Time
	Pose      Pose
	// Dims is the chunk size the world was created with. Zero for rows written before
	// sizes were recorded.
	Dims world.Dimensions
	// HasPose is false until the first save.
	HasPose bool
}

// DB is the saved-world registry.
type DB struct {
	db *sql.DB
}

// OpenSQLite opens or creates the registry at path.
func OpenSQLite(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worlds (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			has_pose INTEGER NOT NULL DEFAULT 0,
			player_x REAL NOT NULL DEFAULT 0,
			player_y REAL NOT NULL DEFAULT 0,
			player_z REAL NOT NULL DEFAULT 0,
			yaw REAL NOT NULL DEFAULT 0,
			pitch REAL NOT NULL DEFAULT 0,
			chunk_width INTEGER NOT NULL DEFAULT 0,
			chunk_height INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	for _, col := range []string{"chunk_width", "chunk_height"} {
		if err := addColumn(db, "worlds", col, "INTEGER NOT NULL DEFAULT 0"); err != nil {
			return err
		}
	}
	return nil
}

// addColumn adds a column to a table created by an older schema. Existing columns are left alone.
func addColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	_, err = db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Create registers a new world. The seed is stored as given; callers resolve a zero seed first.
func (d *DB) Create(name string, seed int64, dims world.Dimensions, now time.Time) (World, error) {
	if name == "" {
		return World{}, fmt.Errorf("empty world name")
	}
	if err := dims.Validate(); err != nil {
		return World{}, fmt.Errorf("create world %q: %w", name, err)
	}
	w := World{
		Name:      name,
		ID:        uuid.NewString(),
		Seed:      seed,
		Dims:      dims,
		CreatedAt: now.UTC().Truncate(time.Second),
	}
	res, err := d.db.Exec(
		`INSERT INTO worlds(name,id,seed,created_at,chunk_width,chunk_height) VALUES(?,?,?,?,?,?) ON CONFLICT(name) DO NOTHING`,
		w.Name, w.ID, w.Seed, w.CreatedAt.Format(time.RFC3339), w.Dims.Width, w.Dims.Height,
	)
	if err != nil {
		return World{}, fmt.Errorf("create world %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return World{}, fmt.Errorf("create world %q: %w", name, ErrExists)
	}
	return w, nil
}

// Get returns a world by name.
func (d *DB) Get(name string) (World, error) {
	row := d.db.QueryRow(`SELECT name,id,seed,created_at,has_pose,player_x,player_y,player_z,yaw,pitch,chunk_width,chunk_height FROM worlds WHERE name=?`, name)
	w, err := scanWorld(row)
	if errors.Is(err, sql.ErrNoRows) {
		return World{}, fmt.Errorf("world %q: %w", name, persistence.ErrNotFound)
	}
	if err != nil {
		return World{}, fmt.Errorf("world %q: %w", name, err)
	}
	return w, nil
}

// List returns every registered world ordered by name.
func (d *DB) List() ([]World, error) {
	rows, err := d.db.Query(`SELECT name,id,seed,created_at,has_pose,player_x,player_y,player_z,yaw,pitch,chunk_width,chunk_height FROM worlds ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []World
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SavePose records the observer pose of a world.
func (d *DB) SavePose(name string, p Pose) error {
	res, err := d.db.Exec(
		`UPDATE worlds SET has_pose=1,player_x=?,player_y=?,player_z=?,yaw=?,pitch=? WHERE name=?`,
		p.X, p.Y, p.Z, p.Yaw, p.Pitch, name,
	)
	if err != nil {
		return fmt.Errorf("save pose of %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save pose of %q: %w", name, persistence.ErrNotFound)
	}
	return nil
}

// SaveDimensions records the chunk size of a world registered without one.
func (d *DB) SaveDimensions(name string, dims world.Dimensions) error {
	if err := dims.Validate(); err != nil {
		return fmt.Errorf("chunk size of %q: %w", name, err)
	}
	res, err := d.db.Exec(`UPDATE worlds SET chunk_width=?,chunk_height=? WHERE name=?`, dims.Width, dims.Height, name)
	if err != nil {
		return fmt.Errorf("chunk size of %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chunk size of %q: %w", name, persistence.ErrNotFound)
	}
	return nil
}

// Delete removes a world from the registry. Deleting an unknown world is not an error.
func (d *DB) Delete(name string) error {
	if _, err := d.db.Exec(`DELETE FROM worlds WHERE name=?`, name); err != nil {
		return fmt.Errorf("delete world %q: %w", name, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorld(s scanner) (World, error) {
	var (
		w       World
		created string
		hasPose int
	)
	if err := s.Scan(&w.Name, &w.ID, &w.Seed, &created, &hasPose,
		&w.Pose.X, &w.Pose.Y, &w.Pose.Z, &w.Pose.Yaw, &w.Pose.Pitch,
		&w.Dims.Width, &w.Dims.Height); err != nil {
		return World{}, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return World{}, fmt.Errorf("created_at %q: %w", created, err)
	}
	w.CreatedAt = t
	w.HasPose = hasPose != 0
	return w, nil
}

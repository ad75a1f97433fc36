package worlddb

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tradecraft/internal/persistence"
	"tradecraft/internal/world"
)

var testDims = world.Dimensions{Width: 16, Height: 128}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	w, err := db.Create("alpha", 1234, testDims, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.ID == "" {
		t.Fatalf("world id not assigned")
	}

	got, err := db.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Seed != 1234 || got.Dims != testDims || got.ID != w.ID || !got.CreatedAt.Equal(now) || got.HasPose {
		t.Fatalf("row mismatch: %+v", got)
	}

	if _, err := db.Create("alpha", 1, testDims, now); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate create: got %v, want ErrExists", err)
	}
	if _, err := db.Get("missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("missing world: got %v, want ErrNotFound", err)
	}
}

func TestSavePose(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Create("beta", 7, testDims, time.Now()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	pose := Pose{X: 10.5, Y: -3, Z: 40, Yaw: 90, Pitch: -15}
	if err := db.SavePose("beta", pose); err != nil {
		t.Fatalf("SavePose: %v", err)
	}
	got, err := db.Get("beta")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.HasPose || got.Pose != pose {
		t.Fatalf("pose: got %+v (has=%v), want %+v", got.Pose, got.HasPose, pose)
	}
	if err := db.SavePose("nobody", pose); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("pose of unknown world: got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"c", "a", "b"} {
		if _, err := db.Create(name, 1, testDims, time.Now()); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	list, err := db.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Name != "a" || list[2].Name != "c" {
		t.Fatalf("List: got %v", list)
	}

	if err := db.Delete("b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Delete("b"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	list, _ = db.List()
	if len(list) != 2 {
		t.Fatalf("after delete: got %d worlds, want 2", len(list))
	}
}

func TestReopenKeepsWorlds(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := db.Create("persist", 99, testDims, time.Now()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Get("persist")
	if err != nil || got.Seed != 99 {
		t.Fatalf("reopened world: %+v, %v", got, err)
	}
}

func TestCreateRejectsEmptyDimensions(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Create("flat", 1, world.Dimensions{}, time.Now()); err == nil {
		t.Fatalf("created a world with no chunk size")
	}
}

func TestOldRegistryGainsChunkSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	_, err = raw.Exec(`CREATE TABLE worlds (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		has_pose INTEGER NOT NULL DEFAULT 0,
		player_x REAL NOT NULL DEFAULT 0,
		player_y REAL NOT NULL DEFAULT 0,
		player_z REAL NOT NULL DEFAULT 0,
		yaw REAL NOT NULL DEFAULT 0,
		pitch REAL NOT NULL DEFAULT 0
	)`)
	if err != nil {
		t.Fatalf("old schema: %v", err)
	}
	if _, err := raw.Exec(`INSERT INTO worlds(name,id,seed,created_at) VALUES('old','x',5,'2023-01-02T03:04:05Z')`); err != nil {
		t.Fatalf("old row: %v", err)
	}
	_ = raw.Close()

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	got, err := db.Get("old")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Dims != (world.Dimensions{}) {
		t.Fatalf("old row size: got %v, want zero", got.Dims)
	}
	dims := world.Dimensions{Width: 8, Height: 32}
	if err := db.SaveDimensions("old", dims); err != nil {
		t.Fatalf("SaveDimensions: %v", err)
	}
	if got, _ := db.Get("old"); got.Dims != dims || got.Seed != 5 {
		t.Fatalf("after SaveDimensions: %+v", got)
	}
	if err := db.SaveDimensions("nobody", dims); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("size of unknown world: got %v", err)
	}
}

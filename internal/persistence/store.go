package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tradecraft/internal/world"
)

// InventoryFile is the name of the inventory file inside a world directory.
const InventoryFile = "Player"

// ChunkStorage loads and saves chunk grids by coordinate.
type ChunkStorage interface {
	Exists(coord world.ChunkCoord) bool
	LoadChunk(coord world.ChunkCoord) ([]world.BlockType, error)
	SaveChunk(coord world.ChunkCoord, ids []world.BlockType) error
}

// FileStore keeps one world's chunk and inventory files in a directory.
type FileStore struct {
	dir string
}

// OpenFileStore creates the world directory if needed.
func OpenFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty world directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the world directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) chunkPath(coord world.ChunkCoord) string {
	return filepath.Join(s.dir, coord.Name())
}

// Exists reports whether a saved file exists for the chunk.
func (s *FileStore) Exists(coord world.ChunkCoord) bool {
	info, err := os.Stat(s.chunkPath(coord))
	return err == nil && info.Mode().IsRegular()
}

// LoadChunk reads the saved grid of a chunk.
func (s *FileStore) LoadChunk(coord world.ChunkCoord) ([]world.BlockType, error) {
	data, err := s.read(s.chunkPath(coord))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", coord, err)
	}
	ids, err := DecodeChunk(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", coord, err)
	}
	return ids, nil
}

// SaveChunk writes the grid of a chunk, replacing any earlier file.
func (s *FileStore) SaveChunk(coord world.ChunkCoord, ids []world.BlockType) error {
	data, err := EncodeChunk(ids)
	if err != nil {
		return fmt.Errorf("save %s: %w", coord, err)
	}
	if err := s.write(s.chunkPath(coord), data); err != nil {
		return fmt.Errorf("save %s: %w", coord, err)
	}
	return nil
}

// SaveInventory writes the inventory file.
func (s *FileStore) SaveInventory(inv Inventory) error {
	data, err := EncodeInventory(inv)
	if err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	if err := s.write(filepath.Join(s.dir, InventoryFile), data); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// LoadInventory reads the inventory file.
func (s *FileStore) LoadInventory() (Inventory, error) {
	data, err := s.read(filepath.Join(s.dir, InventoryFile))
	if err != nil {
		return Inventory{}, fmt.Errorf("load inventory: %w", err)
	}
	inv, err := DecodeInventory(data)
	if err != nil {
		return Inventory{}, fmt.Errorf("load inventory: %w", err)
	}
	return inv, nil
}

// SavedChunks lists the coordinates of every chunk file in the world directory.
func (s *FileStore) SavedChunks() ([]world.ChunkCoord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var coords []world.ChunkCoord
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "Chunk_") {
			continue
		}
		coord, err := world.ParseChunkName(e.Name())
		if err != nil {
			continue
		}
		coords = append(coords, coord)
	}
	return coords, nil
}

// Delete removes the world directory and everything in it.
func (s *FileStore) Delete() error {
	return os.RemoveAll(s.dir)
}

func (s *FileStore) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	return data, err
}

// write replaces path through a temp file and rename.
func (s *FileStore) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

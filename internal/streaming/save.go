package streaming

import (
	"errors"
	"fmt"

	"tradecraft/internal/profiling"
)

// SaveAll persists every live chunk and keeps them live.
func (s *ChunkStreamer) SaveAll() error {
	defer profiling.Track("streaming.SaveAll")()
	var errs []error
	saved := 0
	for _, coord := range s.store.Coords() {
		c := s.store.GetChunk(coord)
		if c == nil {
			continue
		}
		if err := s.conf.Storage.SaveChunk(coord, c.BlockIDs()); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", coord, err))
			continue
		}
		saved++
	}
	s.conf.Log.Info("saved chunks", "saved", saved, "failed", len(errs))
	return errors.Join(errs...)
}

// EvictAll persists and destroys every live chunk. Chunks that fail to save stay live.
func (s *ChunkStreamer) EvictAll() error {
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	defer func() { s.busy = false }()

	var errs []error
	for _, coord := range s.store.Coords() {
		s.states[coord] = StatePendingEviction
	}
	for _, coord := range s.store.Coords() {
		if err := s.evict(coord); err != nil {
			errs = append(errs, err)
		}
	}
	s.built = false
	return errors.Join(errs...)
}

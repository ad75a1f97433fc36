package persistence

import (
	"bytes"
	"errors"
	"testing"

	"tradecraft/internal/world"
)

func TestChunkRoundTrip(t *testing.T) {
	dims := world.DefaultDimensions()
	c := world.NewChunk(world.ChunkCoord{X: 2, Y: -1}, dims, 42)
	world.NewGenerator(world.DefaultGenParams(), nil).Populate(c)

	data, err := EncodeChunk(c.BlockIDs())
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	ids, err := DecodeChunk(data)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if len(ids) != dims.Volume() {
		t.Fatalf("decoded length: got %d, want %d", len(ids), dims.Volume())
	}
	for i, id := range c.BlockIDs() {
		if ids[i] != id {
			t.Fatalf("id %d: got %d, want %d", i, ids[i], id)
		}
	}
	// mostly air and stone
	if len(data) >= dims.Volume()*4 {
		t.Fatalf("payload not compressed: %d bytes", len(data))
	}
}

func TestEmptySequenceRoundTrip(t *testing.T) {
	data, err := EncodeChunk(nil)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	ids, err := DecodeChunk(data)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("decoded length: got %d, want 0", len(ids))
	}
}

func assertChunkRoundTrip(t *testing.T, want []world.BlockType) {
	t.Helper()
	data, err := EncodeChunk(want)
	if err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	got, err := DecodeChunk(data)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("id %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAllAirChunkRoundTrip(t *testing.T) {
	dims := world.DefaultDimensions()
	ids := world.NewChunk(world.ChunkCoord{X: -3, Y: 8}, dims, 7).BlockIDs()
	if len(ids) != dims.Volume() {
		t.Fatalf("fresh grid length: got %d, want %d", len(ids), dims.Volume())
	}
	for i, id := range ids {
		if id != world.BlockTypeAir {
			t.Fatalf("fresh grid cell %d holds %d", i, id)
		}
	}
	assertChunkRoundTrip(t, ids)
}

func TestFullChunkRoundTrip(t *testing.T) {
	dims := world.DefaultDimensions()
	ids := make([]world.BlockType, dims.Volume())
	for i := range ids {
		ids[i] = world.BlockType(1 + i%7)
	}
	assertChunkRoundTrip(t, ids)
}

// failingWriter rejects every write.
type failingWriter struct {
	writes int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errDiskFull
}

func TestWriteSequencesReportsWriterError(t *testing.T) {
	w := &failingWriter{}
	big := make([]int32, 64*1024)
	err := WriteSequences(w, big, big)
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("got %v, want the writer's error", err)
	}
	if w.writes == 0 {
		t.Fatalf("writer never called")
	}
}

func TestDecodeUncompressed(t *testing.T) {
	raw := []byte{4, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0}
	if _, err := DecodeChunk(raw); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("uncompressed payload: got %v, want ErrCorrupt", err)
	}
	if _, err := DecodeChunk(nil); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("empty payload: got %v, want ErrCorrupt", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSequences(&buf, []int32{1, 2, 3}); err != nil {
		t.Fatalf("WriteSequences: %v", err)
	}
	// second sequence is missing
	if _, err := ReadSequences(bytes.NewReader(buf.Bytes()), 2); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("missing sequence: got %v, want ErrCorrupt", err)
	}

	data := buf.Bytes()
	if _, err := DecodeChunk(data[:len(data)/2]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("truncated payload: got %v, want ErrCorrupt", err)
	}
}

func TestDecodeNegativeCount(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSequences(&buf, []int32{-5}); err != nil {
		t.Fatalf("WriteSequences: %v", err)
	}
	// the single value reads back as the count of a second sequence
	if _, err := ReadSequences(bytes.NewReader(buf.Bytes()), 2); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("negative count: got %v, want ErrCorrupt", err)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	inv := Inventory{ItemIDs: []int32{3, 4, 0, 6}, ItemCounts: []int32{64, 12, 0, 1}}
	data, err := EncodeInventory(inv)
	if err != nil {
		t.Fatalf("EncodeInventory: %v", err)
	}
	got, err := DecodeInventory(data)
	if err != nil {
		t.Fatalf("DecodeInventory: %v", err)
	}
	if got.Len() != inv.Len() {
		t.Fatalf("slots: got %d, want %d", got.Len(), inv.Len())
	}
	for i := range inv.ItemIDs {
		if got.ItemIDs[i] != inv.ItemIDs[i] || got.ItemCounts[i] != inv.ItemCounts[i] {
			t.Fatalf("slot %d: got %d x%d, want %d x%d", i, got.ItemIDs[i], got.ItemCounts[i], inv.ItemIDs[i], inv.ItemCounts[i])
		}
	}
}

func TestInventoryLengthMismatch(t *testing.T) {
	if _, err := EncodeInventory(Inventory{ItemIDs: []int32{1}, ItemCounts: nil}); err == nil {
		t.Fatalf("mismatched inventory should not encode")
	}

	var buf bytes.Buffer
	if err := WriteSequences(&buf, []int32{1, 2}, []int32{5}); err != nil {
		t.Fatalf("WriteSequences: %v", err)
	}
	if _, err := DecodeInventory(buf.Bytes()); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("mismatched file: got %v, want ErrCorrupt", err)
	}
}

package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"tradecraft/internal/world"
)

var (
	// ErrNotFound is returned when no saved file exists.
	ErrNotFound = errors.New("saved data not found")
	// ErrCorrupt is returned when a file is not a valid compressed payload.
	ErrCorrupt = errors.New("corrupt saved data")
)

// maxSequenceLen bounds a decoded sequence so a damaged count cannot allocate gigabytes.
const maxSequenceLen = 1 << 26

// WriteSequences zlib-compresses the int32 sequences into w. Each sequence is a little-endian
// int32 count followed by its values.
func WriteSequences(w io.Writer, seqs ...[]int32) error {
	zw, err := zlib.NewWriterLevel(w, zlib.DefaultCompression)
	if err != nil {
		return err
	}
	if err := writeCounted(bufio.NewWriterSize(zw, 64*1024), seqs); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func writeCounted(bw *bufio.Writer, seqs [][]int32) error {
	for _, seq := range seqs {
		if err := binary.Write(bw, binary.LittleEndian, int32(len(seq))); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, seq); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadSequences decodes n sequences written by WriteSequences.
func ReadSequences(r io.Reader, n int) ([][]int32, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("not compressed: %w", errors.Join(ErrCorrupt, err))
	}
	defer zr.Close()

	br := bufio.NewReaderSize(zr, 64*1024)
	out := make([][]int32, 0, n)
	for i := 0; i < n; i++ {
		var count int32
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("sequence %d length: %w", i, errors.Join(ErrCorrupt, err))
		}
		if count < 0 || count > maxSequenceLen {
			return nil, fmt.Errorf("sequence %d length %d: %w", i, count, ErrCorrupt)
		}
		seq := make([]int32, count)
		if err := binary.Read(br, binary.LittleEndian, seq); err != nil {
			return nil, fmt.Errorf("sequence %d body: %w", i, errors.Join(ErrCorrupt, err))
		}
		out = append(out, seq)
	}
	return out, nil
}

// EncodeChunk returns the compressed file contents for a chunk grid.
func EncodeChunk(ids []world.BlockType) ([]byte, error) {
	seq := make([]int32, len(ids))
	for i, id := range ids {
		seq[i] = int32(id)
	}
	var buf bytes.Buffer
	if err := WriteSequences(&buf, seq); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeChunk is the inverse of EncodeChunk.
func DecodeChunk(data []byte) ([]world.BlockType, error) {
	seqs, err := ReadSequences(bytes.NewReader(data), 1)
	if err != nil {
		return nil, err
	}
	ids := make([]world.BlockType, len(seqs[0]))
	for i, v := range seqs[0] {
		ids[i] = world.BlockType(v)
	}
	return ids, nil
}

// Inventory is the player's saved items as parallel id and count sequences.
type Inventory struct {
	ItemIDs    []int32
	ItemCounts []int32
}

// Len returns the number of inventory slots.
func (inv Inventory) Len() int {
	return len(inv.ItemIDs)
}

// EncodeInventory returns the compressed file contents for an inventory.
func EncodeInventory(inv Inventory) ([]byte, error) {
	if len(inv.ItemIDs) != len(inv.ItemCounts) {
		return nil, fmt.Errorf("inventory has %d ids and %d counts", len(inv.ItemIDs), len(inv.ItemCounts))
	}
	var buf bytes.Buffer
	if err := WriteSequences(&buf, inv.ItemIDs, inv.ItemCounts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeInventory is the inverse of EncodeInventory.
func DecodeInventory(data []byte) (Inventory, error) {
	seqs, err := ReadSequences(bytes.NewReader(data), 2)
	if err != nil {
		return Inventory{}, err
	}
	if len(seqs[0]) != len(seqs[1]) {
		return Inventory{}, fmt.Errorf("inventory has %d ids and %d counts: %w", len(seqs[0]), len(seqs[1]), ErrCorrupt)
	}
	return Inventory{ItemIDs: seqs[0], ItemCounts: seqs[1]}, nil
}

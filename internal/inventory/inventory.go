package inventory

import (
	"fmt"

	"tradecraft/internal/persistence"
	"tradecraft/internal/world"
)

const (
	Size     = 36
	MaxStack = 64
)

// Stack is a block id and how many of it a slot holds.
type Stack struct {
	ID    world.BlockType
	Count int32
}

// Empty reports whether the slot holds nothing.
func (s Stack) Empty() bool {
	return s.Count <= 0 || s.ID == world.BlockTypeAir
}

type Inventory struct {
	Slots       [Size]Stack
	CurrentItem int
}

func New() *Inventory {
	return &Inventory{}
}

// GetCurrentItem returns the selected slot.
func (inv *Inventory) GetCurrentItem() Stack {
	return inv.Slots[inv.CurrentItem]
}

// AddItem adds count blocks of id and returns how many did not fit.
func (inv *Inventory) AddItem(id world.BlockType, count int32) int32 {
	if id == world.BlockTypeAir || count <= 0 {
		return 0
	}

	// merge into existing stacks first
	for i := range inv.Slots {
		s := &inv.Slots[i]
		if s.Empty() || s.ID != id || s.Count >= MaxStack {
			continue
		}
		toAdd := min(count, MaxStack-s.Count)
		s.Count += toAdd
		count -= toAdd
		if count == 0 {
			return 0
		}
	}

	for count > 0 {
		i := inv.GetFirstEmptyStack()
		if i < 0 {
			return count
		}
		toAdd := min(count, MaxStack)
		inv.Slots[i] = Stack{ID: id, Count: toAdd}
		count -= toAdd
	}
	return 0
}

// TakeCurrent removes one block from the selected slot and returns its id.
func (inv *Inventory) TakeCurrent() (world.BlockType, bool) {
	s := &inv.Slots[inv.CurrentItem]
	if s.Empty() {
		return world.BlockTypeAir, false
	}
	id := s.ID
	s.Count--
	if s.Count == 0 {
		*s = Stack{}
	}
	return id, true
}

// GetFirstEmptyStack returns the index of the first empty slot, or -1.
func (inv *Inventory) GetFirstEmptyStack() int {
	for i := range inv.Slots {
		if inv.Slots[i].Empty() {
			return i
		}
	}
	return -1
}

// NextNonEmpty moves the selection forward to the next slot holding something. The selection
// is unchanged when every slot is empty.
func (inv *Inventory) NextNonEmpty() {
	for step := 1; step <= Size; step++ {
		i := (inv.CurrentItem + step) % Size
		if !inv.Slots[i].Empty() {
			inv.CurrentItem = i
			return
		}
	}
}

// Count returns the total number of blocks of id held.
func (inv *Inventory) Count(id world.BlockType) int32 {
	var n int32
	for _, s := range inv.Slots {
		if !s.Empty() && s.ID == id {
			n += s.Count
		}
	}
	return n
}

// Saved converts the inventory to its file form: one id and count per slot, empty slots
// included.
func (inv *Inventory) Saved() persistence.Inventory {
	out := persistence.Inventory{
		ItemIDs:    make([]int32, Size),
		ItemCounts: make([]int32, Size),
	}
	for i, s := range inv.Slots {
		if s.Empty() {
			continue
		}
		out.ItemIDs[i] = int32(s.ID)
		out.ItemCounts[i] = s.Count
	}
	return out
}

// FromSaved restores an inventory from its file form. Extra slots are rejected.
func FromSaved(saved persistence.Inventory) (*Inventory, error) {
	if saved.Len() > Size {
		return nil, fmt.Errorf("inventory has %d slots, at most %d fit", saved.Len(), Size)
	}
	inv := New()
	for i := range saved.Len() {
		s := Stack{ID: world.BlockType(saved.ItemIDs[i]), Count: saved.ItemCounts[i]}
		if s.Empty() || s.Count > MaxStack {
			continue
		}
		inv.Slots[i] = s
	}
	return inv, nil
}

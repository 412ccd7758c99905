package item

import (
	"fmt"
	"strings"

	"starteritems.gg/internal/nbt"
)

const DefaultNamespace = "minecraft"

// Stack is a count of one item, optionally carrying a structured tag.
type Stack struct {
	Item  string
	Count int
	NBT   *nbt.Compound
}

func (s Stack) Empty() bool {
	return s.Item == "" || s.Count <= 0
}

// Copy returns an independent stack; inserting a stack into an inventory
// consumes its count, so callers hand out copies of shared templates. Tags
// are immutable and shared.
func (s Stack) Copy() *Stack {
	return &Stack{Item: s.Item, Count: s.Count, NBT: s.NBT}
}

func (s Stack) CanMerge(o Stack) bool {
	return s.Item == o.Item && s.NBT.Equal(o.NBT)
}

func (s Stack) String() string {
	if s.NBT.Len() > 0 {
		return fmt.Sprintf("%d %s %s", s.Count, s.Item, s.NBT)
	}
	return fmt.Sprintf("%d %s", s.Count, s.Item)
}

// Inventory is the slot container the starter plugin mutates.
type Inventory interface {
	Size() int
	// At returns the stack in slot, or an empty stack.
	At(slot int) Stack
	RemoveAt(slot int) Stack
	Clear()
	// Insert moves as much of s as fits into the inventory, decrementing
	// s.Count. It reports whether the whole stack was inserted.
	Insert(s *Stack) bool
}

// NormalizeID validates a namespaced identifier and applies the default
// namespace to bare paths.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("empty item identifier")
	}
	ns, path, found := strings.Cut(id, ":")
	if !found {
		return DefaultNamespace + ":" + id, nil
	}
	if strings.Contains(path, ":") {
		return "", fmt.Errorf("item identifier %q has more than one ':'", id)
	}
	if ns == "" || path == "" {
		return "", fmt.Errorf("item identifier %q has an empty namespace or path", id)
	}
	return id, nil
}

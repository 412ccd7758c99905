package starter

import (
	"errors"
	"fmt"

	"starteritems.gg/internal/chat"
	"starteritems.gg/internal/config"
)

// JoinedTag is the durable player tag marking a completed first join.
const JoinedTag = "starteritems_joined"

// Registry is the host item registry.
type Registry interface {
	Contains(id string) bool
}

// Kit is the validated, immutable form of the config.
type Kit struct {
	Path string

	Entries   []KitEntry
	FirstJoin []chat.Message
	Welcome   []chat.Message
	Commands  []string

	ClearInventory bool
	ClearDelay     int
	UnknownItems   string
	InventoryFull  string

	starterIDs map[string]struct{}
}

type KitEntry struct {
	Line  string
	Spec  ItemSpec
	Known bool
}

// NewKit parses and validates cfg. path is named in every error so operators
// know which file to fix. Unknown item ids fail here under the fatal policy.
func NewKit(path string, cfg config.Config, reg Registry) (*Kit, error) {
	k := &Kit{
		Path:           path,
		Commands:       append([]string(nil), cfg.ServerStartCommands...),
		ClearInventory: cfg.ClearInventoryBeforeGivingItems,
		ClearDelay:     cfg.DelayedClearTicks,
		UnknownItems:   cfg.UnknownItemPolicy,
		InventoryFull:  cfg.InventoryFullPolicy,
		starterIDs:     map[string]struct{}{},
	}
	if k.ClearDelay < 1 {
		k.ClearDelay = 1
	}

	for _, line := range cfg.StarterItems {
		spec, err := ParseItemSpec(line)
		if err != nil {
			return nil, withPath(err, path)
		}
		known := reg != nil && reg.Contains(spec.ItemID)
		if !known && k.UnknownItems != config.UnknownItemSkip {
			return nil, &RegistryLookupError{Path: path, ItemID: spec.ItemID, Line: line}
		}
		if known {
			k.starterIDs[spec.ItemID] = struct{}{}
		}
		k.Entries = append(k.Entries, KitEntry{Line: line, Spec: spec, Known: known})
	}

	var err error
	if k.FirstJoin, err = FormatMessages("first_join_messages", cfg.FirstJoinMessages); err != nil {
		return nil, withPath(err, path)
	}
	if k.Welcome, err = FormatMessages("welcome_messages", cfg.WelcomeMessages); err != nil {
		return nil, withPath(err, path)
	}
	return k, nil
}

func withPath(err error, path string) error {
	var fe *ConfigFormatError
	if errors.As(err, &fe) {
		fe.Path = path
		return fe
	}
	return fmt.Errorf("%s: %w", path, err)
}

// HasItems reports whether any entry would be granted.
func (k *Kit) HasItems() bool {
	return len(k.starterIDs) > 0
}

func (k *Kit) IsStarterItem(id string) bool {
	_, ok := k.starterIDs[id]
	return ok
}

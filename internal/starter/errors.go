package starter

import (
	"fmt"

	"starteritems.gg/internal/item"
)

// ConfigFormatError is a malformed starter item line or message color.
// It is fatal at startup.
type ConfigFormatError struct {
	Path   string
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigFormatError) Error() string {
	msg := fmt.Sprintf("%s {%s} is not in a valid format: %s", e.Field, e.Value, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path != "" {
		msg += fmt.Sprintf(". Please check the config file at %s for acceptable formats", e.Path)
	}
	return msg
}

func (e *ConfigFormatError) Unwrap() error { return e.Err }

// RegistryLookupError is a starter item id the item registry does not know.
type RegistryLookupError struct {
	Path   string
	ItemID string
	Line   string
}

func (e *RegistryLookupError) Error() string {
	msg := fmt.Sprintf("starter item {%s} does not exist in the item registry. Are you sure the identifier is correct?", e.ItemID)
	if e.Path != "" {
		msg += fmt.Sprintf(" (config %s, line %q)", e.Path, e.Line)
	}
	return msg
}

// CapacityError reports a grant stopped by a full inventory.
type CapacityError struct {
	PlayerID  string
	Remaining item.Stack
	Skipped   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("inventory of player %s is full: %d of %s not granted, %d later starter items skipped",
		e.PlayerID, e.Remaining.Count, e.Remaining.Item, e.Skipped)
}

// InvariantViolation is an unrecoverable host state, such as a player whose
// tag storage cannot take the joined marker.
type InvariantViolation struct {
	PlayerID string
	Msg      string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("player %s: %s", e.PlayerID, e.Msg)
}

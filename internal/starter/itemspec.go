package starter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"starteritems.gg/internal/item"
	"starteritems.gg/internal/nbt"
)

const fieldStarterItems = "starter_items"

var itemLine = regexp.MustCompile(`^((?P<count>\d+)\s+)?\s*(?P<item>[\w:]+)\s*(\s+(?P<nbt>\{.*\}))?$`)

// ItemSpec is one parsed starter item line: [count] <item> [{nbt}].
type ItemSpec struct {
	Count  int
	ItemID string
	NBT    *nbt.Compound
}

// ParseItemSpec parses a starter item line. The item id is normalized but not
// checked against a registry.
func ParseItemSpec(line string) (ItemSpec, error) {
	raw := line
	line = strings.TrimSpace(line)
	m := itemLine.FindStringSubmatch(line)
	if m == nil {
		return ItemSpec{}, &ConfigFormatError{Field: fieldStarterItems, Value: raw, Reason: "expected [count] <item id> [{nbt}]"}
	}

	spec := ItemSpec{Count: 1}
	if s := m[itemLine.SubexpIndex("count")]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return ItemSpec{}, &ConfigFormatError{Field: fieldStarterItems, Value: raw, Reason: "count out of range", Err: err}
		}
		if n < 1 {
			return ItemSpec{}, &ConfigFormatError{Field: fieldStarterItems, Value: raw, Reason: "count must be at least 1"}
		}
		spec.Count = n
	}

	id, err := item.NormalizeID(m[itemLine.SubexpIndex("item")])
	if err != nil {
		return ItemSpec{}, &ConfigFormatError{Field: fieldStarterItems, Value: raw, Reason: "invalid item identifier", Err: err}
	}
	spec.ItemID = id

	if s := m[itemLine.SubexpIndex("nbt")]; s != "" {
		tag, err := nbt.Parse(s)
		if err != nil {
			return ItemSpec{}, &ConfigFormatError{Field: fieldStarterItems, Value: raw, Reason: "could not read NBT compound", Err: err}
		}
		spec.NBT = tag
	}
	return spec, nil
}

// String renders the spec back into the config line grammar.
func (s ItemSpec) String() string {
	out := fmt.Sprintf("%d %s", s.Count, s.ItemID)
	if s.NBT != nil {
		out += " " + s.NBT.String()
	}
	return out
}

func (s ItemSpec) Stack() item.Stack {
	return item.Stack{Item: s.ItemID, Count: s.Count, NBT: s.NBT}
}

package protocol

// HELLO (client -> server).
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client).
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	PlayerID        string      `json:"player_id"`
	Name            string      `json:"name"`
	Dimension       string      `json:"dimension"`
	WorldParams     WorldParams `json:"world_params"`
	ItemPalette     DigestRef   `json:"item_palette"`
}

type WorldParams struct {
	TickRateHz    int      `json:"tick_rate_hz"`
	Dimensions    []string `json:"dimensions"`
	InventorySize int      `json:"inventory_size"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// ACT (client -> server).
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Action          string `json:"action"`
	Dimension       string `json:"dimension,omitempty"`
}

// CHAT (server -> client): one styled chat line. Color is "#rrggbb" when set.
type ChatMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Text            string `json:"text"`
	Color           string `json:"color,omitempty"`
}

// INVENTORY (server -> client): the non-empty slots after a change.
type InventoryMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Tick            uint64          `json:"tick"`
	Dimension       string          `json:"dimension"`
	Slots           []InventorySlot `json:"slots"`
}

type InventorySlot struct {
	Slot  int    `json:"slot"`
	Item  string `json:"item"`
	Count int    `json:"count"`
	NBT   string `json:"nbt,omitempty"`
}

// ERROR (server -> client).
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

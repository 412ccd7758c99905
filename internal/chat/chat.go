package chat

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	decColor = regexp.MustCompile(`^\d+$`)
)

const maxRGB = 0xFFFFFF

// Message is a single line of styled text delivered to a player.
type Message struct {
	Text     string
	Color    int
	HasColor bool
}

func Plain(text string) Message {
	return Message{Text: text}
}

func Colored(text string, rgb int) Message {
	return Message{Text: text, Color: rgb, HasColor: true}
}

// Hex renders the color as #rrggbb, or "" when the message is unstyled.
func (m Message) Hex() string {
	if !m.HasColor {
		return ""
	}
	return fmt.Sprintf("#%06x", m.Color)
}

// ParseColor accepts "#RRGGBB" or a decimal RGB integer.
func ParseColor(s string) (int, error) {
	switch {
	case hexColor.MatchString(s):
		n, err := strconv.ParseInt(s[1:], 16, 32)
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case decColor.MatchString(s):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n > maxRGB {
			return 0, fmt.Errorf("decimal color %s out of range 0..%d", s, maxRGB)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%q is not a valid color: must be RGB decimal or #hex", s)
}

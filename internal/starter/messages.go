package starter

import (
	"starteritems.gg/internal/chat"
	"starteritems.gg/internal/config"
)

// FormatMessages converts configured messages into chat lines.
func FormatMessages(field string, msgs []config.Message) ([]chat.Message, error) {
	out := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Color == "" {
			out = append(out, chat.Plain(m.Text))
			continue
		}
		rgb, err := chat.ParseColor(m.Color)
		if err != nil {
			return nil, &ConfigFormatError{Field: field + ".color", Value: m.Color, Reason: "must be RGB decimal or #hex color", Err: err}
		}
		out = append(out, chat.Colored(m.Text, rgb))
	}
	return out, nil
}

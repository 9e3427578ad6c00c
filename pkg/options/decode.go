package options

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

// StatesResponse is the object form of a dependent option payload. Endpoints
// may also answer with a bare JSON array of strings.
type StatesResponse struct {
	Country string   `json:"country"`
	States  []string `json:"states"`
}

// DecodeOptions accepts either a JSON array of strings or a StatesResponse.
func DecodeOptions(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := sonic.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return list, nil
	}
	var payload StatesResponse
	if err := sonic.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return payload.States, nil
}

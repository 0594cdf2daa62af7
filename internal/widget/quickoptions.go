package widget

import (
	"encoding/json"
	"fmt"
	"strings"
)

// a canned prompt offered before the conversation starts
type QuickOption struct {
	Icon   string `json:"icon"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// parses the configured JSON list, dropping entries without a label or prompt
func ParseQuickOptions(raw string) ([]QuickOption, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var options []QuickOption
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, fmt.Errorf("failed to parse quick options: %w", err)
	}

	valid := options[:0]
	for _, opt := range options {
		opt.Label = strings.TrimSpace(opt.Label)
		opt.Prompt = strings.TrimSpace(opt.Prompt)

		if opt.Label == "" || opt.Prompt == "" {
			continue
		}

		valid = append(valid, opt)
	}

	return valid, nil
}

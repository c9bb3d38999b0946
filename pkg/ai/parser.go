package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSpeakerNames decodes a name-inference reply. Non-string values are ignored.
func ParseSpeakerNames(content string) (map[string]string, error) {
	content = extractJSON(content)
	if content == "" {
		return map[string]string{}, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	names := make(map[string]string, len(raw))
	for id, v := range raw {
		if s, ok := v.(string); ok {
			names[id] = strings.TrimSpace(s)
		}
	}
	return names, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		// language tag such as ```json
		if nl := strings.IndexByte(content, '\n'); nl != -1 && !strings.ContainsAny(content[:nl], "{[") {
			content = content[nl+1:]
		} else {
			content = strings.TrimPrefix(content, "json")
		}
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}

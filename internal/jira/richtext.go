package jira

import (
	"encoding/json"
	"strings"
)

// adfNode is the subset of the Atlassian Document Format tree we care about:
// leaves carry text, containers carry ordered children.
type adfNode struct {
	Text    string          `json:"text"`
	Content []json.RawMessage `json:"content"`
}

// FlattenDescription converts a Jira description field into plain text. The
// field is either a plain JSON string (API v2) or an ADF document (v3); both
// are handled, and anything malformed flattens to "".
func FlattenDescription(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []string
	collectText(raw, &parts)
	return strings.TrimSpace(strings.Join(parts, " "))
}

func collectText(raw json.RawMessage, parts *[]string) {
	var node adfNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return
	}
	if node.Text != "" {
		*parts = append(*parts, node.Text)
	}
	for _, child := range node.Content {
		collectText(child, parts)
	}
}

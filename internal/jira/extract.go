package jira

import (
	"regexp"
	"strings"
)

const (
	minListTitleLen = 10
	maxListTitleLen = 200
)

var (
	// Marker style: "qtest: Verify refund flow" or "Test case Verify login".
	// The capture stops at line end.
	markerPattern = regexp.MustCompile(`(?i)(?:qtest|test\s*case)[ \t]*:?[ \t]*([\w \t\-.,()\[\]]+)`)

	// Bulleted or numbered list lines that often enumerate test cases.
	bulletLinePattern = regexp.MustCompile(`^[*\-•]\s+.+`)
	numberLinePattern = regexp.MustCompile(`^\d+\.\s+.+`)
	listMarkerPrefix  = regexp.MustCompile(`^[*\-•\d.\s]+`)
)

// ExtractLinkedTestCases mines plain text for implied manual test case
// titles. Two heuristics run independently and merge into one ordered,
// deduplicated set. Best effort: it may over- or under-extract but never
// fails, and empty input yields an empty result.
func ExtractLinkedTestCases(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var titles []string
	seen := make(map[string]bool)
	add := func(title string) {
		title = strings.TrimSpace(title)
		if title == "" || seen[title] {
			return
		}
		seen[title] = true
		titles = append(titles, title)
	}

	for _, match := range markerPattern.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !bulletLinePattern.MatchString(line) && !numberLinePattern.MatchString(line) {
			continue
		}
		title := strings.TrimSpace(listMarkerPrefix.ReplaceAllString(line, ""))
		if len(title) > minListTitleLen && len(title) < maxListTitleLen {
			add(title)
		}
	}

	return titles
}

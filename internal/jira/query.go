package jira

import (
	"fmt"
	"net/url"
)

const searchPath = "/rest/api/2/search"

// BuildSprintIssuesQuery composes the issue search request for one sprint.
// Pure: identical inputs always produce the identical query string.
func BuildSprintIssuesQuery(sprintID, projectKey, defaultProjectKey string) string {
	key := projectKey
	if key == "" {
		key = defaultProjectKey
	}
	jql := fmt.Sprintf("sprint = %s AND project = %s", sprintID, key)

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", "1000")
	params.Set("expand", "changelog")
	return searchPath + "?" + params.Encode()
}

// BuildGlobalSearchQuery composes the project-wide keyword search over
// summary, description and comments.
func BuildGlobalSearchQuery(keyword, projectKey, defaultProjectKey string) string {
	key := projectKey
	if key == "" {
		key = defaultProjectKey
	}
	jql := fmt.Sprintf("project = %s AND (summary ~ %q OR description ~ %q OR comment ~ %q)",
		key, keyword, keyword, keyword)

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", "1000")
	params.Set("fields", "key,summary,issuetype,status,priority")
	return searchPath + "?" + params.Encode()
}

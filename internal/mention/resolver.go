// ABOUTME: Pure @mention resolution for message content
// ABOUTME: Maps message text plus an agent directory to a set of mentioned agent ids

package mention

import (
	"regexp"
	"sort"
	"strings"

	"github.com/2389/taskboard/internal/store"
)

// tokenPattern extracts @name candidates: an @ preceded by a non-word
// boundary, followed by word characters (names may contain hyphens).
var tokenPattern = regexp.MustCompile(`(^|\W)@([\w-]+)`)

// Resolve scans content for @mentions against the agent directory and
// returns the mentioned agent ids, sorted and de-duplicated.
//
// Matching is case-insensitive on agent names. The literal token @all
// expands to the task's current assignee set (not the whole directory), so
// broadcast mentions only reach participants. Unknown names are ignored.
// Callers store the result on the message at creation time; it is never
// re-derived.
func Resolve(content string, agents []*store.Agent, assigneeIDs []string) []string {
	matches := tokenPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	byName := make(map[string]string, len(agents))
	known := make(map[string]bool, len(agents))
	for _, a := range agents {
		byName[strings.ToLower(a.Name)] = a.ID
		known[a.ID] = true
	}

	mentioned := make(map[string]bool)
	for _, m := range matches {
		token := strings.ToLower(m[2])
		if token == "all" {
			for _, id := range assigneeIDs {
				if known[id] {
					mentioned[id] = true
				}
			}
			continue
		}
		if id, ok := byName[token]; ok {
			mentioned[id] = true
		}
	}

	if len(mentioned) == 0 {
		return nil
	}
	ids := make([]string, 0, len(mentioned))
	for id := range mentioned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

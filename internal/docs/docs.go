// Package docs holds the articles printed by "forge docs".
package docs

import (
	"fmt"
	"strings"
)

type Topic struct {
	Name    string
	Title   string
	Summary string
	Content string // plain text, no ANSI
}

// All returns every topic in display order.
func All() []Topic {
	return topics
}

// Get finds a topic by name, ignoring case. A unique prefix such as "nam"
// also selects a topic.
func Get(name string) (Topic, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	var matches []Topic
	for _, t := range topics {
		if t.Name == key {
			return t, nil
		}
		if key != "" && strings.HasPrefix(t.Name, key) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Topic{}, fmt.Errorf("unknown topic %q: run 'forge docs' to list available topics", name)
	default:
		return Topic{}, fmt.Errorf("topic %q is ambiguous: could be %s", name, names(matches))
	}
}

// Index renders the topic list shown by a bare "forge docs".
func Index() string {
	var sb strings.Builder
	sb.WriteString("\nAvailable topics:\n\n")
	for _, t := range topics {
		fmt.Fprintf(&sb, "  %-14s %s\n", t.Name, t.Summary)
	}
	sb.WriteString("\nRun 'forge docs <topic>' to read a topic.\n")
	return sb.String()
}

func names(ts []Topic) string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return strings.Join(out, ", ")
}

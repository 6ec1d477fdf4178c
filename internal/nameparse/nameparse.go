// Package nameparse splits human names into first/last components. It
// handles the two shapes search backends render: "Last, First Middle" and
// "First Middle Last".
package nameparse

import "strings"

// Split decomposes a full name into its first and last components. Middle
// names and suffixes are discarded. Split never fails; unparseable input
// degrades to empty components.
func Split(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}

	if before, after, found := strings.Cut(full, ","); found {
		last = strings.TrimSpace(before)
		if rest := strings.Fields(after); len(rest) > 0 {
			first = rest[0]
		}
		return first, last
	}

	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}

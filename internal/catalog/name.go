package catalog

import "strings"

// PersonName holds the split components of a person's display name. Empty
// fields mean the component is absent, never the "unknown" sentinel.
type PersonName struct {
	First  string
	Middle string
	Last   string
}

// SplitPersonName applies the fixed word-count rule to a display name:
//
//	1 token  -> first
//	2 tokens -> first + last
//	3 tokens -> first + middle + last
//	>3       -> first + second-as-middle + remainder joined as last
func SplitPersonName(full string) PersonName {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return PersonName{}
	case 1:
		return PersonName{First: parts[0]}
	case 2:
		return PersonName{First: parts[0], Last: parts[1]}
	case 3:
		return PersonName{First: parts[0], Middle: parts[1], Last: parts[2]}
	default:
		return PersonName{First: parts[0], Middle: parts[1], Last: strings.Join(parts[2:], " ")}
	}
}

// IsZero reports whether no component is set.
func (n PersonName) IsZero() bool {
	return n.First == "" && n.Middle == "" && n.Last == ""
}

// Display joins the non-empty components with single spaces.
func (n PersonName) Display() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.First, n.Middle, n.Last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

package registry

import "strings"

// defaultExclusions covers desktop shells, panels and compositors that
// publish client-list entries but are never switch targets. User-configured
// exclusions are appended to this set.
var defaultExclusions = []string{
	"gnome-shell",
	"gnome-settings-daemon",
	"gnome-panel",
	"cinnamon",
	"mate-panel",
	"xfce4-panel",
	"plasma-desktop",
	"kwin",
	"compiz",
	"metacity",
	"mutter",
	"unity",
	"unity-panel-service",
	"desktop",
	"verge",
}

// ClassFilter rejects windows by application class, case-insensitive, on
// exact or prefix match. Prefix matching catches per-profile variants like
// "gnome-shell-overview".
type ClassFilter struct {
	entries []string
}

// NewClassFilter builds a filter from the default exclusion set plus extra
// user entries.
func NewClassFilter(extra []string) *ClassFilter {
	f := &ClassFilter{}
	for _, e := range defaultExclusions {
		f.add(e)
	}
	for _, e := range extra {
		f.add(e)
	}
	return f
}

func (f *ClassFilter) add(entry string) {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if entry != "" {
		f.entries = append(f.entries, entry)
	}
}

// Excluded reports whether class matches any filter entry.
func (f *ClassFilter) Excluded(class string) bool {
	class = strings.ToLower(class)
	for _, e := range f.entries {
		if class == e || strings.HasPrefix(class, e) {
			return true
		}
	}
	return false
}

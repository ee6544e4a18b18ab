package schema

// CapTable maps a composition parentKey to the maximum number of child
// records it may collect. A cap of 0 disables the composition.
type CapTable map[string]int

// BuiltinCaps is the static cap table shipped with the bot. Feature
// documents and the configuration file may extend or override it.
var BuiltinCaps = CapTable{
	"targets":       5,
	"autoroles":     10,
	"reactionRoles": 20,
	"embedFields":   25,
	"socialFeeds":   3,
	"ticketPanels":  0,
}

// Cap returns the cap for parentKey and whether one is registered.
func (t CapTable) Cap(parentKey string) (int, bool) {
	n, ok := t[parentKey]
	return n, ok
}

// Merge returns a new table with entries of overrides applied on top of t.
func (t CapTable) Merge(overrides map[string]int) CapTable {
	out := make(CapTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// CapsFor returns the effective cap table for a feature: the builtin table,
// then configuration overrides, then the feature's own meta.caps.
func CapsFor(f *Feature, configured map[string]int) CapTable {
	caps := BuiltinCaps.Merge(configured)
	if f != nil {
		caps = caps.Merge(f.Meta.Caps)
	}
	return caps
}

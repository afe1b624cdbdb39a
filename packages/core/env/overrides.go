package env

// Overrides are variables that take precedence over every declared
// environment variable. Pre-request scripts write into them.
type Overrides map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into o, replacing existing keys.
func (o Overrides) Merge(other Overrides) {
	for k, v := range other {
		o[k] = v
	}
}

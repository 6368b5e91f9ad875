package config

// Option names recognized by the scanner's Configure surface.
const (
	OptIncludeHiddenFiles = "includeHiddenFiles"
	OptIncludeOSFiles     = "includeOSFiles"
	OptIncludePattern     = "includePattern"
	OptExcludePattern     = "excludePattern"
	OptFollowSymlinks     = "followSymlinks"
	OptMaxDepth           = "maxDepth"
)

// Options is an ordered set of named string options. Options may be
// repeatable (patterns); for single-valued options the last value wins.
// Unknown names are carried but ignored by consumers.
type Options struct {
	order  []string
	values map[string][]string
}

// NewOptions returns an empty option set.
func NewOptions() *Options {
	return &Options{values: make(map[string][]string)}
}

// Add appends a value to the named option.
func (o *Options) Add(name, value string) *Options {
	if _, seen := o.values[name]; !seen {
		o.order = append(o.order, name)
	}

	o.values[name] = append(o.values[name], value)

	return o
}

// Set replaces the named option with a single value.
func (o *Options) Set(name, value string) *Options {
	if _, seen := o.values[name]; !seen {
		o.order = append(o.order, name)
	}

	o.values[name] = []string{value}

	return o
}

// Get returns the last value of the named option.
func (o *Options) Get(name string) (string, bool) {
	vs := o.values[name]
	if len(vs) == 0 {
		return "", false
	}

	return vs[len(vs)-1], true
}

// Values returns all values of the named option, in insertion order.
func (o *Options) Values(name string) []string {
	return o.values[name]
}

// Names returns the option names in first-insertion order.
func (o *Options) Names() []string {
	return o.order
}

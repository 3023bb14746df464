package framing

import "sort"

// Headers is an ordered name/value mapping as carried in a SynStream,
// SynReply, or Headers frame's NV block. Names are case-sensitive byte
// strings, stored and compared exactly as received: unlike HTTP/1.1,
// SPDY/3 does not fold header name case. A name may carry more than
// one value; on the wire these are NUL-joined inside a single value
// field.
type Headers struct {
	names  []string
	values map[string][]string
}

// NewHeaders returns an empty Headers.
func NewHeaders() *Headers {
	return &Headers{values: make(map[string][]string)}
}

// Set replaces any existing value(s) for name with a single value.
// The wire format forbids duplicate names within one NV block, so any
// prior value for name is dropped rather than appended to.
func (h *Headers) Set(name, value string) {
	h.SetValues(name, []string{value})
}

// SetValues replaces any existing value(s) for name with values.
func (h *Headers) SetValues(name string, values []string) {
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	cp := make([]string, len(values))
	copy(cp, values)
	h.values[name] = cp
}

// Get returns the first value for name, if any.
func (h *Headers) Get(name string) (string, bool) {
	vs, ok := h.values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Values returns all values for name, in the order they were set.
func (h *Headers) Values(name string) []string {
	return h.values[name]
}

// Names returns every distinct header name, in first-set order.
func (h *Headers) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len reports the number of distinct names.
func (h *Headers) Len() int {
	return len(h.names)
}

// Equal reports whether h and other carry exactly the same names and
// values, ignoring name order. Used by tests and by round-trip checks.
func (h *Headers) Equal(other *Headers) bool {
	if h.Len() != other.Len() {
		return false
	}
	for name, vs := range h.values {
		ovs, ok := other.values[name]
		if !ok || len(vs) != len(ovs) {
			return false
		}
		for i := range vs {
			if vs[i] != ovs[i] {
				return false
			}
		}
	}
	return true
}

// sortedNames returns names in a stable, deterministic order for
// on-wire serialisation. SPDY/3 does not mandate a canonical order,
// only the count prefix; sorting makes encoding reproducible for tests.
func (h *Headers) sortedNames() []string {
	out := h.Names()
	sort.Strings(out)
	return out
}

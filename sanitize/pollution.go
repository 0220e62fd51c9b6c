package sanitize

import "net/url"

// CollapseValues is the parameter-pollution guard: a query key appearing more
// than once collapses to its first value (the host framework's url.Values.Get
// policy), except keys on the repeatable allow-list, which keep every value.
func (s *Sanitizer) CollapseValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if _, ok := s.repeatable[key]; ok {
			out[key] = append([]string(nil), vals...)
			continue
		}
		out[key] = []string{vals[0]}
	}
	return out
}

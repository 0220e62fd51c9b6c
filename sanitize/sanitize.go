package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxDepth bounds recursion when Config.MaxDepth is unset.
const DefaultMaxDepth = 32

// Config controls the pipeline.
type Config struct {
	MaxDepth       int
	RepeatableKeys []string
}

// Sanitizer applies the two sanitization passes. Safe for concurrent use; the
// underlying policy is immutable after construction.
type Sanitizer struct {
	policy     *bluemonday.Policy
	maxDepth   int
	repeatable map[string]struct{}
}

// New builds a Sanitizer with the fixed markup allow-list: b, i, em, strong,
// p, br, all stripped of every attribute. Content of script, style, iframe,
// object, and embed elements is removed along with the tags.
func New(cfg Config) *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "i", "em", "strong", "p", "br")

	maxDepth := cfg.MaxDepth
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}

	repeatable := make(map[string]struct{}, len(cfg.RepeatableKeys))
	for _, k := range cfg.RepeatableKeys {
		repeatable[k] = struct{}{}
	}

	return &Sanitizer{
		policy:     policy,
		maxDepth:   maxDepth,
		repeatable: repeatable,
	}
}

// String runs the markup pass over a single string.
func (s *Sanitizer) String(in string) string {
	return s.policy.Sanitize(in)
}

// operatorKey reports keys that could smuggle document-store operators when
// request data is merged unsanitized into a query filter: a reserved operator
// sentinel prefix or a path separator anywhere in the key.
func operatorKey(key string) bool {
	return strings.HasPrefix(key, "$") || strings.Contains(key, ".")
}

// GuardKeys is the injection-guard pass: at every nesting depth, object keys
// starting with "$" or containing "." are removed before descent. Values are
// not modified.
func (s *Sanitizer) GuardKeys(v interface{}) (interface{}, error) {
	w := &walker{
		maxDepth: s.maxDepth,
		key: func(k string) (string, bool) {
			return k, !operatorKey(k)
		},
		str: func(in string) string { return in },
	}
	return w.walk(v, 0)
}

// CleanMarkup is the value pass: every string leaf and every object key is
// replaced with its markup-sanitized form.
func (s *Sanitizer) CleanMarkup(v interface{}) (interface{}, error) {
	w := &walker{
		maxDepth: s.maxDepth,
		key: func(k string) (string, bool) {
			return s.policy.Sanitize(k), true
		},
		str: s.policy.Sanitize,
	}
	return w.walk(v, 0)
}

// Value composes the two passes in pipeline order: injection guard first,
// markup sanitizer second.
func (s *Sanitizer) Value(v interface{}) (interface{}, error) {
	guarded, err := s.GuardKeys(v)
	if err != nil {
		return nil, err
	}
	return s.CleanMarkup(guarded)
}

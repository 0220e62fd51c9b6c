package sanitize

import "errors"

// ErrDepthExceeded reports input nested beyond the configured cap.
var ErrDepthExceeded = errors.New("sanitize: max depth exceeded")

// walker is the recursive-descent contract shared by the injection guard and
// the markup pass: object → iterate entries, array → iterate elements, scalar
// → transform or pass through.
type walker struct {
	maxDepth int

	// key maps an object key to its replacement; keep=false removes the entry
	// (and its entire subtree) before descent.
	key func(string) (cleaned string, keep bool)

	// str maps a string leaf to its replacement.
	str func(string) string
}

func (w *walker) walk(v interface{}, depth int) (interface{}, error) {
	if depth > w.maxDepth {
		return nil, ErrDepthExceeded
	}

	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			cleaned, keep := w.key(k)
			if !keep {
				continue
			}
			cv, err := w.walk(val, depth+1)
			if err != nil {
				return nil, err
			}
			out[cleaned] = cv
		}
		return out, nil

	case []interface{}:
		out := make([]interface{}, len(t))
		for i, el := range t {
			cv, err := w.walk(el, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil

	case string:
		return w.str(t), nil

	default:
		// numbers, booleans, null: non-container leaves pass unmodified
		return v, nil
	}
}

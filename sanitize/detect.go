package sanitize

import "regexp"

// Finding is one suspicious match reported by the Detector.
type Finding struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
	Excerpt string `json:"excerpt"`
}

const excerptLimit = 100

// detectorPatterns is the fixed corpus of dangerous substrings scanned for.
// The detector is telemetry only: it never mutates input and never blocks the
// pipeline.
var detectorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[\s\S]*?>[\s\S]*?</script>`),
	regexp.MustCompile(`(?is)<iframe[\s\S]*?>[\s\S]*?</iframe>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)onclick\s*=`),
	regexp.MustCompile(`(?i)onerror\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)expression\s*\(`),
	regexp.MustCompile(`(?i)data:\s*text/html`),
}

// Detector scans decoded request values for known attack markers.
type Detector struct {
	maxDepth int
}

func NewDetector(maxDepth int) *Detector {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Detector{maxDepth: maxDepth}
}

// Scan walks v and returns a finding per pattern match. root names the input
// being scanned ("body", "query", "params") and prefixes every finding path.
// Scan never fails: input beyond the depth cap is simply not descended into.
func (d *Detector) Scan(v interface{}, root string) []Finding {
	var findings []Finding
	d.scan(v, root, 0, &findings)
	return findings
}

func (d *Detector) scan(v interface{}, path string, depth int, out *[]Finding) {
	if depth > d.maxDepth {
		return
	}

	switch t := v.(type) {
	case string:
		for _, pattern := range detectorPatterns {
			if pattern.MatchString(t) {
				*out = append(*out, Finding{
					Pattern: pattern.String(),
					Path:    path,
					Excerpt: excerpt(t),
				})
			}
		}
	case map[string]interface{}:
		for k, val := range t {
			d.scan(val, path+"."+k, depth+1, out)
		}
	case []interface{}:
		for _, el := range t {
			d.scan(el, path, depth+1, out)
		}
	}
}

func excerpt(s string) string {
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit] + "..."
}

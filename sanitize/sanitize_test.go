package sanitize

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func newTestSanitizer() *Sanitizer {
	return New(Config{RepeatableKeys: []string{"tags", "fields"}})
}

func TestStringMarkupAllowList(t *testing.T) {
	s := newTestSanitizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"allowed tag kept", "<b>bold</b>", "<b>bold</b>"},
		{"attributes stripped", `<b onclick="alert(1)">hi</b>`, "<b>hi</b>"},
		{"class stripped", `<p class="lead">text</p>`, "<p>text</p>"},
		{"disallowed tag unwrapped", "<div>content</div>", "content"},
		{"script content removed", "<script>alert(1)</script>", ""},
		{"style content removed", "<style>body{}</style>after", "after"},
		{"iframe content removed", "<iframe src=x>inner</iframe>after", "after"},
		{"object content removed", "<object>inner</object>after", "after"},
		{"nested allowed", "<p>a <strong>b</strong> c</p>", "<p>a <strong>b</strong> c</p>"},
		{"img dropped", `<img src=x onerror=alert(1)>text`, "text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.String(tc.in); got != tc.want {
				t.Fatalf("String(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStringIsIdempotent(t *testing.T) {
	s := newTestSanitizer()

	inputs := []string{
		"<script>alert(1)</script>",
		"<b onclick=x>hi</b>",
		"<p>ok</p>",
		`<a href="javascript:alert(1)">x</a>`,
	}
	for _, in := range inputs {
		once := s.String(in)
		if twice := s.String(once); twice != once {
			t.Fatalf("not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestGuardKeysRemovesOperatorsAtEveryDepth(t *testing.T) {
	s := newTestSanitizer()

	in := map[string]interface{}{
		"$where":  "1==1",
		"a.b":     "dotted",
		"name":    "ok",
		"nested":  map[string]interface{}{"$gt": float64(1), "keep": "yes"},
		"list":    []interface{}{map[string]interface{}{"$in": []interface{}{"x"}}},
		"$rename": map[string]interface{}{"a": "b"},
	}
	out, err := s.GuardKeys(in)
	if err != nil {
		t.Fatalf("GuardKeys failed: %v", err)
	}

	want := map[string]interface{}{
		"name":   "ok",
		"nested": map[string]interface{}{"keep": "yes"},
		"list":   []interface{}{map[string]interface{}{}},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %#v, want %#v", out, want)
	}
}

func TestGuardKeysLeavesValuesAlone(t *testing.T) {
	s := newTestSanitizer()

	in := map[string]interface{}{"note": "$where is fine inside a value, a.b too"}
	out, err := s.GuardKeys(in)
	if err != nil {
		t.Fatalf("GuardKeys failed: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("values were modified: %#v", out)
	}
}

func TestCleanMarkupCoversKeysAndLeaves(t *testing.T) {
	s := newTestSanitizer()

	in := map[string]interface{}{
		"<script>k</script>": "<script>v</script>",
		"plain":              []interface{}{"<b>kept</b>", float64(1), true, nil},
	}
	out, err := s.CleanMarkup(in)
	if err != nil {
		t.Fatalf("CleanMarkup failed: %v", err)
	}

	m := out.(map[string]interface{})
	if _, ok := m[""]; !ok {
		t.Fatalf("markup key not cleaned: %#v", m)
	}
	if m[""] != "" {
		t.Fatalf("markup value not cleaned: %#v", m[""])
	}
	list := m["plain"].([]interface{})
	if list[0] != "<b>kept</b>" || list[1] != float64(1) || list[2] != true || list[3] != nil {
		t.Fatalf("non-string leaves changed: %#v", list)
	}
}

func TestValueComposesBothPasses(t *testing.T) {
	s := newTestSanitizer()

	in := map[string]interface{}{
		"$where": "1==1",
		"name":   "<script>alert(1)</script>",
	}
	out, err := s.Value(in)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if !reflect.DeepEqual(out, map[string]interface{}{"name": ""}) {
		t.Fatalf("got %#v", out)
	}
}

func TestValueDepthCap(t *testing.T) {
	s := New(Config{MaxDepth: 3})

	deep := interface{}("leaf")
	for i := 0; i < 6; i++ {
		deep = map[string]interface{}{"nested": deep}
	}
	if _, err := s.Value(deep); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("want ErrDepthExceeded, got %v", err)
	}

	shallow := map[string]interface{}{"a": map[string]interface{}{"b": "c"}}
	if _, err := s.Value(shallow); err != nil {
		t.Fatalf("shallow value rejected: %v", err)
	}
}

func TestCollapseValuesFirstWins(t *testing.T) {
	s := newTestSanitizer()

	in := url.Values{
		"sort":   {"asc", "desc"},
		"tags":   {"red", "blue"},
		"fields": {"name"},
		"empty":  {},
	}
	out := s.CollapseValues(in)

	if got := out["sort"]; len(got) != 1 || got[0] != "asc" {
		t.Fatalf("sort: %v", got)
	}
	if got := out["tags"]; !reflect.DeepEqual(got, []string{"red", "blue"}) {
		t.Fatalf("tags: %v", got)
	}
	if got := out["fields"]; !reflect.DeepEqual(got, []string{"name"}) {
		t.Fatalf("fields: %v", got)
	}
}

func TestDetectorFindsKnownPatterns(t *testing.T) {
	d := NewDetector(0)

	cases := []struct {
		name    string
		payload string
	}{
		{"script pair", "<script>alert(1)</script>"},
		{"iframe pair", "<iframe src=x>a</iframe>"},
		{"javascript scheme", `<a href="JAVASCRIPT:alert(1)">x</a>`},
		{"vbscript scheme", "vbscript:msgbox(1)"},
		{"onload handler", "<body onload = alert(1)>"},
		{"onclick handler", "<div onclick=alert(1)>"},
		{"onerror handler", "<img onerror=alert(1)>"},
		{"eval call", "eval (document.cookie)"},
		{"css expression", "width: expression(alert(1))"},
		{"data html uri", "data: text/html;base64,xxx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			findings := d.Scan(tc.payload, "body")
			if len(findings) == 0 {
				t.Fatalf("payload %q not detected", tc.payload)
			}
		})
	}

	if findings := d.Scan("perfectly ordinary text", "body"); len(findings) != 0 {
		t.Fatalf("false positives: %+v", findings)
	}
}

func TestDetectorReportsPaths(t *testing.T) {
	d := NewDetector(0)

	in := map[string]interface{}{
		"comment": "<script>x</script>",
		"meta": map[string]interface{}{
			"list": []interface{}{"javascript:void(0)"},
		},
	}
	findings := d.Scan(in, "body")
	if len(findings) != 2 {
		t.Fatalf("want 2 findings, got %d: %+v", len(findings), findings)
	}

	paths := map[string]bool{}
	for _, f := range findings {
		paths[f.Path] = true
	}
	if !paths["body.comment"] || !paths["body.meta.list"] {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestDetectorTruncatesExcerpts(t *testing.T) {
	d := NewDetector(0)

	payload := "<script>" + strings.Repeat("a", 200) + "</script>"
	findings := d.Scan(payload, "body")
	if len(findings) != 1 {
		t.Fatalf("want 1 finding, got %d", len(findings))
	}
	if got := findings[0].Excerpt; len(got) != excerptLimit+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("excerpt not truncated: %d chars", len(got))
	}
}

func TestDetectorIgnoresNonStringLeaves(t *testing.T) {
	d := NewDetector(0)

	in := map[string]interface{}{"n": float64(1), "b": true, "nil": nil}
	if findings := d.Scan(in, "body"); len(findings) != 0 {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestDetectorHonorsDepthCap(t *testing.T) {
	d := NewDetector(2)

	deep := interface{}("<script>x</script>")
	for i := 0; i < 5; i++ {
		deep = map[string]interface{}{"nested": deep}
	}
	if findings := d.Scan(deep, "body"); len(findings) != 0 {
		t.Fatalf("depth cap not honored: %+v", findings)
	}
}

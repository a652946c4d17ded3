package utils

import "testing"

func TestSanitizeStripsScripts(t *testing.T) {
	got := Sanitize(`hello <script>alert(1)</script><b>world</b>`)
	if got != "hello <b>world</b>" {
		t.Fatalf("unexpected sanitized output %q", got)
	}
}

func TestSanitizePtr(t *testing.T) {
	if SanitizePtr(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	in := "  <i>x</i>  "
	out := SanitizePtr(&in)
	if out == nil || *out != "<i>x</i>" {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestSanitizeEncodesTextEntities(t *testing.T) {
	cases := map[string]string{
		"don't":    "don&#39;t",
		"a & b":    "a &amp; b",
		`say "hi"`: "say &#34;hi&#34;",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

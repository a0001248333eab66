package sanitize

import (
	"strings"
	"testing"
)

func TestString_StripsScript(t *testing.T) {
	got := String(`<script>alert(1)</script>Motor controller`)
	if strings.Contains(got, "<script") || strings.Contains(got, "alert(1)</") {
		t.Fatalf("script survived: %q", got)
	}
	if !strings.Contains(got, "Motor controller") {
		t.Fatalf("text lost: %q", got)
	}
}

func TestString_StripsAttributes(t *testing.T) {
	got := String(`<a href="javascript:evil()" onclick="x()">link</a>`)
	if got != "link" {
		t.Fatalf("expected plain text, got %q", got)
	}
}

func TestString_PlainTextUntouched(t *testing.T) {
	if got := String("AndyMark am-1234"); got != "AndyMark am-1234" {
		t.Fatalf("got %q", got)
	}
}

func TestString_KeepsAmpersandsReadable(t *testing.T) {
	if got := String("https://vendor.example/p?id=1&qty=2"); got != "https://vendor.example/p?id=1&qty=2" {
		t.Fatalf("got %q", got)
	}
}

func TestString_StripsEntityEncodedMarkup(t *testing.T) {
	cases := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;&lt;img src=x onerror=alert(2)&gt;",
		"&amp;lt;b onmouseover=alert(1)&amp;gt;bold&amp;lt;/b&amp;gt;",
		"&#60;iframe src=javascript:alert(1)&#62;",
	}
	for _, in := range cases {
		got := String(in)
		for _, bad := range []string{"<script", "<img", "<b ", "<iframe", "onerror", "onmouseover"} {
			if strings.Contains(got, bad) {
				t.Errorf("String(%q) = %q still holds %q", in, got, bad)
			}
		}
	}
}

func TestString_IsStable(t *testing.T) {
	for _, in := range []string{"a < b & c", "Tom &amp; Jerry", "&lt;b&gt;x"} {
		once := String(in)
		if twice := String(once); twice != once {
			t.Errorf("String not stable for %q: %q then %q", in, once, twice)
		}
	}
}

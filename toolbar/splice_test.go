package toolbar

import (
	"net/http"
	"testing"
)

func TestSplice_InsertsBeforeLastMarker(t *testing.T) {
	got, ok := Splice("<body>a</body>b</BODY>", "</body>", "X")
	if !ok {
		t.Fatalf("expected splice")
	}
	if want := "<body>a</body>bX</BODY>"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplice_NoMarker(t *testing.T) {
	got, ok := Splice("<p>no body end</p>", "</body>", "X")
	if ok {
		t.Fatalf("unexpected splice")
	}
	if got != "<p>no body end</p>" {
		t.Fatalf("content changed: %q", got)
	}
}

func TestSplice_KeepsMarkerText(t *testing.T) {
	got, _ := Splice("<html><BoDy></BoDy></html>", "</body>", "X")
	if want := "<html><BoDy>X</BoDy></html>"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplice_NonASCIIContent(t *testing.T) {
	// "İ" lowercases to a longer byte sequence; offsets must stay on the original bytes.
	got, ok := Splice("<p>İİ</p></body>", "</BODY>", "X")
	if !ok {
		t.Fatalf("expected splice")
	}
	if want := "<p>İİ</p>X</body>"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplice_EmptyMarker(t *testing.T) {
	if _, ok := Splice("abc", "", "X"); ok {
		t.Fatalf("empty marker must not splice")
	}
}

func TestCanSplice(t *testing.T) {
	cases := []struct {
		name      string
		header    http.Header
		streaming bool
		want      bool
	}{
		{"html", http.Header{"Content-Type": {"text/html; charset=utf-8"}}, false, true},
		{"html upper", http.Header{"Content-Type": {"TEXT/HTML"}}, false, true},
		{"xhtml", http.Header{"Content-Type": {"application/xhtml+xml"}}, false, true},
		{"json", http.Header{"Content-Type": {"application/json"}}, false, false},
		{"none", http.Header{}, false, false},
		{"gzip", http.Header{"Content-Type": {"text/html"}, "Content-Encoding": {"gzip"}}, false, false},
		{"streaming", http.Header{"Content-Type": {"text/html"}}, true, false},
		{"malformed params", http.Header{"Content-Type": {"text/html;"}}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := &Response{StatusCode: 200, Header: tc.header, Streaming: tc.streaming}
			if got := canSplice(resp); got != tc.want {
				t.Fatalf("canSplice=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestSpliceBody_Latin1(t *testing.T) {
	enc, err := responseEncoding(http.Header{"Content-Type": {"text/html; charset=iso-8859-1"}}, "utf-8")
	if err != nil {
		t.Fatalf("responseEncoding: %v", err)
	}
	body := []byte("<p>caf\xe9</p></body>")
	// iso-8859-1 resolves to windows-1252, which has no snowman.
	got, err := spliceBody(body, enc, "</body>", "<i>é☃</i>")
	if err != nil {
		t.Fatalf("spliceBody: %v", err)
	}
	if want := "<p>caf\xe9</p><i>\xe9&#9731;</i></body>"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSpliceBody_NoMarker(t *testing.T) {
	enc, _ := responseEncoding(http.Header{}, "utf-8")
	if _, err := spliceBody([]byte("<p>x</p>"), enc, "</body>", "X"); err != errNoMarker {
		t.Fatalf("err=%v, want errNoMarker", err)
	}
}

func TestResponseEncoding_Unknown(t *testing.T) {
	if _, err := responseEncoding(http.Header{"Content-Type": {"text/html; charset=x-nope"}}, "utf-8"); err == nil {
		t.Fatalf("expected error for unknown charset")
	}
}

package toolbar

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var errNoMarker = errors.New("toolbar: insertion marker not found")

var markerPatterns sync.Map // marker -> *regexp.Regexp

func markerPattern(marker string) *regexp.Regexp {
	if re, ok := markerPatterns.Load(marker); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(marker))
	markerPatterns.Store(marker, re)
	return re
}

// Splice inserts markup in front of the last case-insensitive occurrence of marker.
//
// The content is left untouched, and ok is false, when marker does not occur.
func Splice(content, marker, markup string) (string, bool) {
	if marker == "" {
		return content, false
	}
	locs := markerPattern(marker).FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return content, false
	}
	at := locs[len(locs)-1][0]
	var b strings.Builder
	b.Grow(len(content) + len(markup))
	b.WriteString(content[:at])
	b.WriteString(markup)
	b.WriteString(content[at:])
	return b.String(), true
}

// canSplice reports whether the toolbar markup can be inserted into resp.
func canSplice(resp *Response) bool {
	if resp.Streaming {
		return false
	}
	if isGzip(resp.Header) {
		return false
	}
	mt, _ := mediaType(resp.Header)
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func isGzip(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Content-Encoding")), "gzip")
}

func mediaType(h http.Header) (string, map[string]string) {
	ct := h.Get("Content-Type")
	if ct == "" {
		return "", nil
	}
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil {
		// Keep the bare type of slightly malformed values like "text/html;".
		mt, _, _ = strings.Cut(ct, ";")
		return strings.ToLower(strings.TrimSpace(mt)), nil
	}
	return mt, params
}

// responseEncoding resolves the charset of resp, falling back to defaultCharset.
func responseEncoding(h http.Header, defaultCharset string) (encoding.Encoding, error) {
	charset := defaultCharset
	if _, params := mediaType(h); params["charset"] != "" {
		charset = params["charset"]
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("toolbar: charset %q: %w", charset, err)
	}
	return enc, nil
}

// spliceBody inserts markup into body, which is encoded in enc.
//
// UTF-8 bodies are spliced on the raw bytes. Other charsets are decoded first and the result is
// encoded back; characters of the markup the charset cannot express become numeric character
// references.
func spliceBody(body []byte, enc encoding.Encoding, marker, markup string) ([]byte, error) {
	if enc == unicode.UTF8 || enc == encoding.Nop {
		out, ok := Splice(string(body), marker, markup)
		if !ok {
			return nil, errNoMarker
		}
		return []byte(out), nil
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("toolbar: decode body: %w", err)
	}
	out, ok := Splice(string(decoded), marker, markup)
	if !ok {
		return nil, errNoMarker
	}
	encoded, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).String(out)
	if err != nil {
		return nil, fmt.Errorf("toolbar: encode body: %w", err)
	}
	return []byte(encoded), nil
}

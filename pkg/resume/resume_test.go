package resume

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestEncodeDecodeToken_RoundTrip(t *testing.T) {
	tok := Token{
		RunID:      "RUN_20260731T120000Z",
		FileIndex:  3,
		SheetIndex: 2,
		IssuedAt:   1785500400,
	}
	s, err := Encode(tok)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if strings.ContainsAny(s, "+/=") {
		t.Fatalf("token contains non-url-safe chars: %q", s)
	}
	out, err := Decode(s)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if *out != tok {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", *out, tok)
	}
}

func TestDecodeToken_Invalid(t *testing.T) {
	cases := []string{
		"",
		"!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not-json")),
		mustB64(`{"run_id":""}`),
		mustB64(`{"run_id":"x","file_index":-1}`),
		mustB64(`{"run_id":"x","file_index":0,"sheet_index":-1}`),
		mustB64(`{"run_id":"x","file_index":0,"sheet_index":0,"issued_at":-1}`),
	}
	for i, c := range cases {
		if _, err := Decode(c); err == nil {
			t.Fatalf("case %d: expected error for token %q", i, c)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	tok := Token{RunID: "r", FileIndex: 2, SheetIndex: 1, IssuedAt: 1}

	cases := []struct {
		file, sheet int
		want        bool
	}{
		{0, 0, true},
		{1, 99, true},
		{2, 0, true},
		{2, 1, false},
		{2, 2, false},
		{3, 0, false},
	}
	for _, c := range cases {
		if got := tok.ShouldSkip(c.file, c.sheet); got != c.want {
			t.Fatalf("ShouldSkip(%d,%d) = %v, want %v", c.file, c.sheet, got, c.want)
		}
	}
}

func mustB64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

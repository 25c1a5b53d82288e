// Package resume encodes an opaque batch resume token for long CLI runs
// over many input files, adapted from the teacher's
// pkg/pagination.Cursor idiom. Unlike the teacher's cursor, which
// resumes a cell/row range within one open workbook, this token resumes
// a batch run: it marks which (file, sheet) pairs have already been
// processed so "--resume <token>" can skip them.
package resume

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Token is the canonical, opaque resume token (pre-encoding), serialized
// to minified JSON and encoded with URL-safe base64, following the
// teacher's Cursor encoding.
type Token struct {
	// RunID ties the token back to the manifest/log sink it resumes.
	RunID string `json:"run_id"`
	// FileIndex is the index, in input order, of the first file not yet
	// fully processed.
	FileIndex int `json:"file_index"`
	// SheetIndex is the index, within that file, of the first sheet not
	// yet processed. Zero for delimited-text inputs (single pseudo-sheet).
	SheetIndex int `json:"sheet_index"`
	// IssuedAt is the unix-seconds timestamp the token was minted at.
	IssuedAt int64 `json:"issued_at"`
}

// Encode serializes and encodes the token as URL-safe base64 (without padding).
func Encode(t Token) (string, error) {
	if err := validate(&t); err != nil {
		return "", err
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode decodes a URL-safe base64 resume token.
func Decode(token string) (*Token, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return nil, errors.New("resume: empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("resume: invalid base64: %w", err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("resume: invalid json: %w", err)
	}
	if err := validate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func validate(t *Token) error {
	if strings.TrimSpace(t.RunID) == "" {
		return errors.New("resume: run_id required")
	}
	if t.FileIndex < 0 {
		return errors.New("resume: file_index must be >= 0")
	}
	if t.SheetIndex < 0 {
		return errors.New("resume: sheet_index must be >= 0")
	}
	if t.IssuedAt < 0 {
		return errors.New("resume: issued_at must be >= 0")
	}
	return nil
}

// ShouldSkip reports whether (fileIndex, sheetIndex) was already
// processed according to t, i.e. it sorts strictly before t's resume
// point.
func (t Token) ShouldSkip(fileIndex, sheetIndex int) bool {
	if fileIndex < t.FileIndex {
		return true
	}
	if fileIndex > t.FileIndex {
		return false
	}
	return sheetIndex < t.SheetIndex
}

// Package ingest reads FAQ files and documents uploaded by administrators.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FAQ is one question/answer pair as uploaded.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Valid reports whether both fields carry text.
func (f FAQ) Valid() bool {
	return strings.TrimSpace(f.Question) != "" && strings.TrimSpace(f.Answer) != ""
}

var (
	// ErrMissingColumns is returned for a CSV without question and answer headers.
	ErrMissingColumns = errors.New("csv needs question and answer columns")
	// ErrMalformed wraps syntax errors in an uploaded FAQ file.
	ErrMalformed = errors.New("malformed faq file")
)

// ParseCSV reads a CSV whose header names question and answer columns in any
// order and case. Rows lacking either value are skipped.
func ParseCSV(r io.Reader) ([]FAQ, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv header: %w", ErrMalformed, err)
	}
	qCol, aCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "question":
			qCol = i
		case "answer":
			aCol = i
		}
	}
	if qCol < 0 || aCol < 0 {
		return nil, ErrMissingColumns
	}

	var out []FAQ
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading csv: %w", ErrMalformed, err)
		}
		if qCol >= len(rec) || aCol >= len(rec) {
			continue
		}
		f := FAQ{Question: strings.TrimSpace(rec[qCol]), Answer: strings.TrimSpace(rec[aCol])}
		if f.Valid() {
			out = append(out, f)
		}
	}
}

// ParseJSON reads an array of {question, answer} objects. Items lacking
// either value are skipped.
func ParseJSON(r io.Reader) ([]FAQ, error) {
	var raw []FAQ
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding json: %w", ErrMalformed, err)
	}
	out := make([]FAQ, 0, len(raw))
	for _, f := range raw {
		f.Question = strings.TrimSpace(f.Question)
		f.Answer = strings.TrimSpace(f.Answer)
		if f.Valid() {
			out = append(out, f)
		}
	}
	return out, nil
}

package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/ledongthuc/pdf"
)

// ErrBadFileName is returned for upload names that reduce to nothing.
var ErrBadFileName = errors.New("invalid file name")

// Upload kinds, by extension.
const (
	ExtCSV  = ".csv"
	ExtJSON = ".json"
	ExtPDF  = ".pdf"
)

// Ext returns the lower-cased extension of name.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// SaveUpload writes r to dir under the base name of name and returns the
// stored path. An existing file of the same name is replaced.
func SaveUpload(dir, name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.TrimSpace(base) == "" {
		return "", ErrBadFileName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	path := filepath.Join(dir, base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", base, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// CountUploads returns how many files in dir carry extension ext. A missing
// directory counts as empty.
func CountUploads(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && Ext(e.Name()) == ext {
			n++
		}
	}
	return n, nil
}

// ExtractPDFText returns the plain text of every page of the PDF at path.
func ExtractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()
	text, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// WriteFAQPDF renders faqs as a printable PDF. Core fonts only cover
// Latin-1, so this is meant for the pivot-language knowledge base.
func WriteFAQPDF(w io.Writer, title string, faqs []FAQ) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, tr(title), "", 1, "", false, 0, "")
	doc.Ln(4)

	for i, f := range faqs {
		doc.SetFont("Arial", "B", 12)
		doc.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", i+1, f.Question)), "", "", false)
		doc.SetFont("Arial", "", 11)
		doc.MultiCell(0, 6, tr(f.Answer), "", "", false)
		doc.Ln(3)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("rendering faq pdf: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/ingest"
	"sarthi/internal/logger"
)

var (
	// ErrInvalidFAQ is returned when a question or answer is blank.
	ErrInvalidFAQ = errors.New("question and answer are required")
	// ErrUnsupportedFormat is returned for uploads with an unexpected extension.
	ErrUnsupportedFormat = errors.New("invalid file format")
)

// DocumentLabelPrefix marks the question label of document passages.
const DocumentLabelPrefix = "PDF: "

// Stats summarises the knowledge base and the uploads directory.
type Stats struct {
	FAQs int `json:"faqs"`
	CSV  int `json:"csv"`
	PDF  int `json:"pdf"`
}

// KnowledgeBase administers the entries behind the chat service.
type KnowledgeBase struct {
	index     domain.VectorIndex
	chunker   domain.Chunker
	uploadDir string
	newID     func() string
	log       *zap.Logger
}

// NewKnowledgeBase creates the administration service. Uploaded files are
// kept in uploadDir.
func NewKnowledgeBase(index domain.VectorIndex, chunker domain.Chunker, uploadDir string, log *zap.Logger) *KnowledgeBase {
	return &KnowledgeBase{
		index:     index,
		chunker:   chunker,
		uploadDir: uploadDir,
		newID:     uuid.NewString,
		log:       logger.OrNop(log),
	}
}

func (kb *KnowledgeBase) faqEntry(f ingest.FAQ) domain.IndexEntry {
	return domain.IndexEntry{
		ID:       kb.newID(),
		Question: strings.TrimSpace(f.Question),
		Answer:   strings.TrimSpace(f.Answer),
		Kind:     domain.KindFAQ,
	}
}

// AddFAQ stores one question/answer pair.
func (kb *KnowledgeBase) AddFAQ(ctx context.Context, question, answer string) error {
	f := ingest.FAQ{Question: question, Answer: answer}
	if !f.Valid() {
		return ErrInvalidFAQ
	}
	return kb.index.Add(ctx, []domain.IndexEntry{kb.faqEntry(f)})
}

// ImportFAQs stores every valid pair and returns how many were added.
func (kb *KnowledgeBase) ImportFAQs(ctx context.Context, faqs []ingest.FAQ) (int, error) {
	entries := make([]domain.IndexEntry, 0, len(faqs))
	for _, f := range faqs {
		if f.Valid() {
			entries = append(entries, kb.faqEntry(f))
		}
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := kb.index.Add(ctx, entries); err != nil {
		return 0, err
	}
	kb.log.Info("faqs imported", zap.Int("count", len(entries)), zap.Int("skipped", len(faqs)-len(entries)))
	return len(entries), nil
}

// ImportDocument splits text into passages and stores each as a document
// entry labelled with the file name.
func (kb *KnowledgeBase) ImportDocument(ctx context.Context, name, text string) (int, error) {
	passages := kb.chunker.Chunk(text)
	if len(passages) == 0 {
		return 0, nil
	}
	label := DocumentLabelPrefix + name
	entries := make([]domain.IndexEntry, len(passages))
	for i, p := range passages {
		entries[i] = domain.IndexEntry{ID: kb.newID(), Question: label, Answer: p, Kind: domain.KindDocument}
	}
	if err := kb.index.Add(ctx, entries); err != nil {
		return 0, err
	}
	kb.log.Info("document imported", zap.String("name", name), zap.Int("passages", len(entries)))
	return len(entries), nil
}

// ImportFAQFile saves an uploaded .csv or .json file and imports its rows.
func (kb *KnowledgeBase) ImportFAQFile(ctx context.Context, name string, r io.Reader) (int, error) {
	ext := ingest.Ext(name)
	if ext != ingest.ExtCSV && ext != ingest.ExtJSON {
		return 0, ErrUnsupportedFormat
	}
	path, err := ingest.SaveUpload(kb.uploadDir, name, r)
	if err != nil {
		return 0, err
	}
	faqs, err := ReadFAQFile(path)
	if err != nil {
		return 0, err
	}
	return kb.ImportFAQs(ctx, faqs)
}

// ReadFAQFile parses a .csv or .json FAQ file from disk.
func ReadFAQFile(path string) ([]ingest.FAQ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch ingest.Ext(path) {
	case ingest.ExtCSV:
		return ingest.ParseCSV(f)
	case ingest.ExtJSON:
		return ingest.ParseJSON(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// ImportPDFFile saves an uploaded PDF and indexes its text. A PDF whose text
// cannot be extracted is still kept; the failure is logged. It returns the
// number of passages added.
func (kb *KnowledgeBase) ImportPDFFile(ctx context.Context, name string, r io.Reader) (int, error) {
	if ingest.Ext(name) != ingest.ExtPDF {
		return 0, ErrUnsupportedFormat
	}
	path, err := ingest.SaveUpload(kb.uploadDir, name, r)
	if err != nil {
		return 0, err
	}
	text, err := ingest.ExtractPDFText(path)
	if err != nil {
		kb.log.Warn("pdf text extraction failed", zap.String("name", name), zap.Error(err))
		return 0, nil
	}
	if strings.TrimSpace(text) == "" {
		kb.log.Warn("pdf has no extractable text", zap.String("name", name))
		return 0, nil
	}
	return kb.ImportDocument(ctx, name, text)
}

// ListFAQs returns every entry carrying both a question and an answer.
func (kb *KnowledgeBase) ListFAQs(ctx context.Context) ([]ingest.FAQ, error) {
	entries, err := kb.index.Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]ingest.FAQ, 0, len(entries))
	for _, e := range entries {
		f := ingest.FAQ{Question: e.Question, Answer: e.Answer}
		if f.Valid() {
			out = append(out, f)
		}
	}
	return out, nil
}

// DeleteFAQ removes every entry labelled question and returns the count.
func (kb *KnowledgeBase) DeleteFAQ(ctx context.Context, question string) (int, error) {
	if strings.TrimSpace(question) == "" {
		return 0, ErrInvalidFAQ
	}
	n, err := kb.index.Delete(ctx, domain.Filter{Question: question})
	if err != nil {
		return 0, err
	}
	kb.log.Info("faq deleted", zap.String("question", question), zap.Int("count", n))
	return n, nil
}

// UpdateFAQ replaces the answer of question. Existing entries with that label
// are removed first; the new entry gets a fresh ID.
func (kb *KnowledgeBase) UpdateFAQ(ctx context.Context, question, newAnswer string) error {
	f := ingest.FAQ{Question: question, Answer: newAnswer}
	if !f.Valid() {
		return ErrInvalidFAQ
	}
	if _, err := kb.index.Delete(ctx, domain.Filter{Question: question}); err != nil {
		return err
	}
	return kb.index.Add(ctx, []domain.IndexEntry{kb.faqEntry(f)})
}

// Stats counts faq entries and the uploaded CSV and PDF files.
func (kb *KnowledgeBase) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	entries, err := kb.index.Get(ctx, nil)
	if err != nil {
		kb.log.Warn("counting faqs failed", zap.Error(err))
	}
	for _, e := range entries {
		if e.Kind == domain.KindFAQ {
			st.FAQs++
		}
	}
	if st.CSV, err = ingest.CountUploads(kb.uploadDir, ingest.ExtCSV); err != nil {
		return st, err
	}
	if st.PDF, err = ingest.CountUploads(kb.uploadDir, ingest.ExtPDF); err != nil {
		return st, err
	}
	return st, nil
}

// ExportPDF writes the faq entries as a printable document.
func (kb *KnowledgeBase) ExportPDF(ctx context.Context, w io.Writer) error {
	entries, err := kb.index.Get(ctx, nil)
	if err != nil {
		return err
	}
	var faqs []ingest.FAQ
	for _, e := range entries {
		if e.Kind == domain.KindFAQ {
			faqs = append(faqs, ingest.FAQ{Question: e.Question, Answer: e.Answer})
		}
	}
	return ingest.WriteFAQPDF(w, "Campus Sarthi FAQ", faqs)
}

// Seed imports FAQ files (.csv, .json) and documents (.pdf) from disk
// without copying them into the uploads directory. It returns the number of
// entries added.
func (kb *KnowledgeBase) Seed(ctx context.Context, paths []string) (int, error) {
	total := 0
	for _, p := range paths {
		var (
			n   int
			err error
		)
		switch ingest.Ext(p) {
		case ingest.ExtCSV, ingest.ExtJSON:
			var faqs []ingest.FAQ
			if faqs, err = ReadFAQFile(p); err == nil {
				n, err = kb.ImportFAQs(ctx, faqs)
			}
		case ingest.ExtPDF:
			var text string
			if text, err = ingest.ExtractPDFText(p); err == nil {
				n, err = kb.ImportDocument(ctx, filepath.Base(p), text)
			}
		default:
			err = ErrUnsupportedFormat
		}
		if err != nil {
			return total, fmt.Errorf("seeding %s: %w", p, err)
		}
		total += n
	}
	return total, nil
}

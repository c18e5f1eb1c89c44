package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sarthi/internal/chunker"
	"sarthi/internal/domain"
	"sarthi/internal/embedding/tfidf"
	"sarthi/internal/ingest"
	"sarthi/internal/vectorstore/memory"
)

func newKB(t *testing.T) (*KnowledgeBase, *memory.Index, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	idx := memory.NewIndex(tfidf.NewEmbedder(), nil)
	kb := NewKnowledgeBase(idx, chunker.NewSentenceChunker(2, 0), dir, nil)
	n := 0
	kb.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return kb, idx, dir
}

func TestAddFAQ(t *testing.T) {
	kb, idx, _ := newKB(t)
	ctx := context.Background()
	require.NoError(t, kb.AddFAQ(ctx, " What are library hours? ", "9am-9pm "))
	assert.ErrorIs(t, kb.AddFAQ(ctx, "", "x"), ErrInvalidFAQ)

	all, err := idx.Get(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.IndexEntry{{ID: "id-1", Question: "What are library hours?", Answer: "9am-9pm", Kind: domain.KindFAQ}}, all)
}

func TestImportFAQFile(t *testing.T) {
	kb, _, dir := newKB(t)
	ctx := context.Background()
	csv := "question,answer\nWhat are library hours?,9am-9pm\nWhere is the canteen?,\n"
	n, err := kb.ImportFAQFile(ctx, "faq.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dir, "faq.csv"))

	n, err = kb.ImportFAQFile(ctx, "faq.json", strings.NewReader(`[{"question":"Where is the canteen?","answer":"Block C"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = kb.ImportFAQFile(ctx, "faq.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	faqs, err := kb.ListFAQs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ingest.FAQ{
		{Question: "What are library hours?", Answer: "9am-9pm"},
		{Question: "Where is the canteen?", Answer: "Block C"},
	}, faqs)

	st, err := kb.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{FAQs: 2, CSV: 1, PDF: 0}, st)
}

func TestImportDocument(t *testing.T) {
	kb, idx, _ := newKB(t)
	ctx := context.Background()
	n, err := kb.ImportDocument(ctx, "brochure.pdf", "One. Two. Three.")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	docs, err := idx.Get(ctx, &domain.Filter{Question: "PDF: brochure.pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, domain.KindDocument, docs[0].Kind)
	assert.Equal(t, "One. Two.", docs[0].Answer)

	st, err := kb.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.FAQs, "document passages are not faqs")

	n, err = kb.ImportDocument(ctx, "empty.pdf", "   ")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportPDFFileKeepsUnreadableUpload(t *testing.T) {
	kb, _, dir := newKB(t)
	n, err := kb.ImportPDFFile(context.Background(), "broken.pdf", strings.NewReader("not a pdf"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, filepath.Join(dir, "broken.pdf"))

	_, err = kb.ImportPDFFile(context.Background(), "notes.docx", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImportPDFFile(t *testing.T) {
	kb, idx, _ := newKB(t)
	var buf bytes.Buffer
	require.NoError(t, ingest.WriteFAQPDF(&buf, "Admissions", []ingest.FAQ{{Question: "Deadline?", Answer: "Admissions close in June."}}))

	n, err := kb.ImportPDFFile(context.Background(), "admissions.pdf", &buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	docs, err := idx.Get(context.Background(), &domain.Filter{Question: "PDF: admissions.pdf"})
	require.NoError(t, err)
	assert.Len(t, docs, n)
}

func TestDeleteAndUpdateFAQ(t *testing.T) {
	kb, idx, _ := newKB(t)
	ctx := context.Background()
	require.NoError(t, kb.AddFAQ(ctx, "Where is the canteen?", "Block B"))
	require.NoError(t, kb.AddFAQ(ctx, "What is the hostel fee?", "Rs 500"))

	require.NoError(t, kb.UpdateFAQ(ctx, "Where is the canteen?", "Block C"))
	got, err := idx.Get(ctx, &domain.Filter{Question: "Where is the canteen?"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Block C", got[0].Answer)
	assert.Equal(t, "id-3", got[0].ID)

	n, err := kb.DeleteFAQ(ctx, "What is the hostel fee?")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = kb.DeleteFAQ(ctx, "What is the hostel fee?")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = kb.DeleteFAQ(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidFAQ)
	assert.ErrorIs(t, kb.UpdateFAQ(ctx, "Where is the canteen?", ""), ErrInvalidFAQ)
}

func TestSeed(t *testing.T) {
	kb, _, _ := newKB(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "seed.csv")
	jsonPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(csvPath, []byte("question,answer\nq1,a1\nq2,a2\n"), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"question":"q3","answer":"a3"}]`), 0o644))

	n, err := kb.Seed(context.Background(), []string{csvPath, jsonPath})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = kb.Seed(context.Background(), []string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
	_, err = kb.Seed(context.Background(), []string{filepath.Join(dir, "notes.txt")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportPDF(t *testing.T) {
	kb, _, _ := newKB(t)
	ctx := context.Background()
	require.NoError(t, kb.AddFAQ(ctx, "What are library hours?", "9am-9pm"))
	var buf bytes.Buffer
	require.NoError(t, kb.ExportPDF(ctx, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

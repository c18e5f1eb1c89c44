package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sarthi/internal/domain"
	"sarthi/internal/ingest"
	"sarthi/internal/localize"
	"sarthi/internal/logger"
	"sarthi/internal/service"
)

// maxUploadBytes caps multipart bodies held in memory.
const maxUploadBytes = 32 << 20

// Chatter answers user questions.
type Chatter interface {
	Chat(ctx context.Context, q domain.Query) (domain.LocalizedResponse, error)
	Greet(lang, theme string) localize.Greeting
}

// Admin manages the knowledge base.
type Admin interface {
	AddFAQ(ctx context.Context, question, answer string) error
	ImportFAQFile(ctx context.Context, name string, r io.Reader) (int, error)
	ImportPDFFile(ctx context.Context, name string, r io.Reader) (int, error)
	ListFAQs(ctx context.Context) ([]ingest.FAQ, error)
	DeleteFAQ(ctx context.Context, question string) (int, error)
	UpdateFAQ(ctx context.Context, question, newAnswer string) error
	Stats(ctx context.Context) (service.Stats, error)
	ExportPDF(ctx context.Context, w io.Writer) error
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	chat  Chatter
	admin Admin
	log   *zap.Logger
}

// NewHandler creates the HTTP handlers.
func NewHandler(chat Chatter, admin Admin, log *zap.Logger) *Handler {
	return &Handler{chat: chat, admin: admin, log: logger.OrNop(log)}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query string `json:"query"`
	Lang  string `json:"lang,omitempty"`
}

// HandleChat handles POST /chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	resp, err := h.chat.Chat(r.Context(), domain.Query{RawText: req.Query, DeclaredLanguage: req.Lang})
	if errors.Is(err, service.ErrEmptyQuery) {
		sendError(w, http.StatusBadRequest, "Query must not be empty")
		return
	}
	if err != nil {
		h.log.Error("chat failed", zap.Error(err))
		sendError(w, http.StatusInternalServerError, "chat failed")
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

// HandleGreet handles GET /greet?lang=&color=.
func (h *Handler) HandleGreet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sendJSON(w, http.StatusOK, h.chat.Greet(q.Get("lang"), q.Get("color")))
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleUploadFAQ handles POST /admin/upload_faq: either question and answer
// values, or a .csv/.json file in the multipart field "file".
func (h *Handler) HandleUploadFAQ(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	question, answer := r.FormValue("question"), r.FormValue("answer")
	if strings.TrimSpace(question) != "" && strings.TrimSpace(answer) != "" {
		if err := h.admin.AddFAQ(r.Context(), question, answer); err != nil {
			h.adminError(w, "adding faq", err)
			return
		}
		sendJSON(w, http.StatusOK, map[string]any{"message": "FAQ uploaded successfully", "count": 1})
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		sendError(w, http.StatusBadRequest, "Provide question & answer or file")
		return
	}
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	n, err := h.admin.ImportFAQFile(r.Context(), header.Filename, file)
	if err != nil {
		h.adminError(w, "importing faq file", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"message": "FAQ uploaded successfully", "count": n})
}

// HandleUploadPDF handles POST /admin/upload_pdf. The response count is the
// number of PDFs in the uploads directory.
func (h *Handler) HandleUploadPDF(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(w, http.StatusBadRequest, "Provide a PDF file")
		return
	}
	defer file.Close()

	passages, err := h.admin.ImportPDFFile(r.Context(), header.Filename, file)
	if err != nil {
		h.adminError(w, "importing pdf", err)
		return
	}
	st, err := h.admin.Stats(r.Context())
	if err != nil {
		h.adminError(w, "counting uploads", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"message":  "PDF uploaded: " + header.Filename,
		"count":    st.PDF,
		"passages": passages,
	})
}

// HandleStats handles GET /admin/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.admin.Stats(r.Context())
	if err != nil {
		h.adminError(w, "stats", err)
		return
	}
	sendJSON(w, http.StatusOK, st)
}

// HandleGetFAQs handles GET /admin/get_faqs.
func (h *Handler) HandleGetFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.admin.ListFAQs(r.Context())
	if err != nil {
		h.adminError(w, "listing faqs", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"faqs": faqs})
}

// HandleDeleteFAQ handles DELETE /admin/delete_faq?question=.
func (h *Handler) HandleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	n, err := h.admin.DeleteFAQ(r.Context(), question)
	if err != nil {
		h.adminError(w, "deleting faq", err)
		return
	}
	if n == 0 {
		sendError(w, http.StatusNotFound, "FAQ not found: "+question)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"message": "FAQ deleted: " + question, "count": n})
}

// HandleUpdateFAQ handles PUT /admin/update_faq with form fields question
// and new_answer.
func (h *Handler) HandleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	question := r.FormValue("question")
	if err := h.admin.UpdateFAQ(r.Context(), question, r.FormValue("new_answer")); err != nil {
		h.adminError(w, "updating faq", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "FAQ updated: " + question})
}

// HandleExportFAQs handles GET /admin/export_faqs, returning the FAQs as a PDF.
func (h *Handler) HandleExportFAQs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.admin.ExportPDF(r.Context(), &buf); err != nil {
		h.adminError(w, "exporting faqs", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="faqs.pdf"`)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// adminError maps knowledge-base errors to responses.
func (h *Handler) adminError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFormat):
		sendError(w, http.StatusBadRequest, "Invalid file format")
	case errors.Is(err, service.ErrInvalidFAQ), errors.Is(err, ingest.ErrMissingColumns),
		errors.Is(err, ingest.ErrBadFileName), errors.Is(err, ingest.ErrMalformed):
		sendError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error(op+" failed", zap.Error(err))
		sendError(w, http.StatusInternalServerError, op+" failed")
	}
}

// parseForm parses urlencoded and multipart bodies; other bodies are ignored.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}

// sendJSON sends a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, detail string) {
	sendJSON(w, status, map[string]string{"detail": detail})
}

package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/ports/primary"
)

type saveRequest struct {
	OutputType        string `json:"output_type"`
	ConfirmOverwrite  bool   `json:"confirm_overwrite"`
	WebsiteURL        string `json:"website_url"`
	Content           string `json:"content"`
	SummarizedContent string `json:"summarized_content"`
	FullContent       string `json:"full_content"`
}

type savedFile struct {
	Filename string `json:"filename"`
	FileURL  string `json:"file_url"`
	FilePath string `json:"file_path"`
}

type saveResponse struct {
	Message        string      `json:"message"`
	FilesSaved     []string    `json:"files_saved"`
	Files          []savedFile `json:"files"`
	BackupsCreated []string    `json:"backups_created,omitempty"`
	HistoryID      int64       `json:"history_id,omitempty"`
	Errors         []string    `json:"errors,omitempty"`
	Warnings       []string    `json:"warnings,omitempty"`
}

type filesExistResponse struct {
	FilesExist    bool     `json:"files_exist"`
	ExistingFiles []string `json:"existing_files"`
}

type historyItem struct {
	ID                int64    `json:"id"`
	WebsiteURL        string   `json:"website_url"`
	OutputType        string   `json:"output_type"`
	SummarizedContent string   `json:"summarized_content,omitempty"`
	FullContent       string   `json:"full_content,omitempty"`
	FilePaths         []string `json:"file_paths"`
	CreatedAt         string   `json:"created_at"`
}

type deleteResponse struct {
	Message      string   `json:"message"`
	FilesDeleted []string `json:"files_deleted"`
	FilesFailed  []string `json:"files_failed"`
}

type generateRequest struct {
	WebsiteURL       string `json:"website_url"`
	OutputType       string `json:"output_type"`
	Save             bool   `json:"save"`
	ConfirmOverwrite bool   `json:"confirm_overwrite"`
}

type generateResponse struct {
	JobID        string        `json:"job_id"`
	LLMsText     string        `json:"llms_text"`
	LLMsFullText string        `json:"llms_full_text"`
	IsZipMode    bool          `json:"is_zip_mode"`
	ZipData      string        `json:"zip_data,omitempty"`
	Save         *saveResponse `json:"save,omitempty"`
}

func (s *Server) handleFilesExist(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("output_type")
	if kind == "" {
		kind = "summary"
	}
	resp, err := s.services.Artifacts.CheckFilesExist(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, filesExistResponse{FilesExist: resp.Exists, ExistingFiles: resp.Names})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.services.Artifacts.SaveToRoot(r.Context(), primary.SaveRequest{
		Kind:             req.OutputType,
		ConfirmOverwrite: req.ConfirmOverwrite,
		SourceURL:        req.WebsiteURL,
		Content:          req.Content,
		Summarized:       req.SummarizedContent,
		Full:             req.FullContent,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, toSaveResponse(resp))
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.services.History.GetHistory(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]historyItem, len(entries))
	for i, e := range entries {
		items[i] = toHistoryItem(e, false)
	}
	jsonOK(w, items)
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	entry, err := s.services.History.GetHistoryItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, toHistoryItem(entry, true))
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	resp, err := s.services.History.DeleteHistoryItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonOK(w, deleteResponse{Message: resp.Message, FilesDeleted: resp.FilesDeleted, FilesFailed: resp.FilesFailed})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.services.Generation.Generate(r.Context(), primary.GenerateRequest{
		WebsiteURL:       req.WebsiteURL,
		Kind:             req.OutputType,
		Save:             req.Save,
		ConfirmOverwrite: req.ConfirmOverwrite,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := generateResponse{
		JobID:        resp.JobID,
		LLMsText:     resp.SummaryText,
		LLMsFullText: resp.FullText,
		IsZipMode:    resp.ZipMode,
	}
	if resp.ZipMode {
		out.ZipData = hex.EncodeToString(resp.ZipData)
	}
	if resp.Save != nil {
		saved := toSaveResponse(resp.Save)
		out.Save = &saved
	}
	jsonOK(w, out)
}

func historyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonErr(w, "Invalid history ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func toSaveResponse(resp *primary.SaveResponse) saveResponse {
	out := saveResponse{
		Message:        resp.Message,
		FilesSaved:     make([]string, len(resp.FilesSaved)),
		Files:          make([]savedFile, len(resp.FilesSaved)),
		BackupsCreated: resp.BackupsCreated,
		HistoryID:      resp.HistoryID,
		Errors:         resp.Errors,
		Warnings:       resp.Warnings,
	}
	for i, f := range resp.FilesSaved {
		out.FilesSaved[i] = f.Name
		out.Files[i] = savedFile{Filename: f.Name, FileURL: f.URL, FilePath: f.Path}
	}
	return out
}

func toHistoryItem(e *primary.HistoryEntry, content bool) historyItem {
	item := historyItem{
		ID:         e.ID,
		WebsiteURL: e.SourceURL,
		OutputType: e.OutputKind,
		FilePaths:  e.FilePaths,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.FilePaths == nil {
		item.FilePaths = []string{}
	}
	if content {
		item.SummarizedContent = e.SummarizedContent
		item.FullContent = e.FullContent
	}
	return item
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrLockTimeout):
		return http.StatusTooManyRequests
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if errors.Is(err, apperr.ErrPermissionDenied) {
		msg = "Insufficient permissions"
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	jsonErr(w, msg, code)
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"github.com/tendant/manga-content/pkg/mangacontent/objectkey"
)

// multipartOverhead is the room left for form boundaries and fields around the file part
const multipartOverhead = 1 << 20

// MangaHandler handles HTTP requests for manga
type MangaHandler struct {
	service mangacontent.Service
	auth    *Authenticator
}

// NewMangaHandler creates a new manga handler
func NewMangaHandler(service mangacontent.Service, auth *Authenticator) *MangaHandler {
	return &MangaHandler{
		service: service,
		auth:    auth,
	}
}

// Routes returns the routes for manga
func (h *MangaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public
	r.Get("/", h.ListApproved)
	r.Get("/{id}", h.GetManga)
	r.Get("/{id}/cover", h.GetCover)
	r.With(h.auth.Optional).Get("/{id}/pages", h.GetPages)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Required)

		r.Get("/my", h.ListOwn)
		r.Get("/pending", h.ListPending)
		r.Post("/", h.CreateManga)
		r.Patch("/{id}", h.UpdateManga)
		r.Delete("/{id}", h.DeleteManga)

		r.Post("/{id}/cover", h.UploadCover)
		r.Post("/{id}/upload", h.UploadFile)

		r.Patch("/{id}/approve", h.Approve)
		r.Patch("/{id}/reject", h.Reject)
	})

	return r
}

// ListApproved lists approved manga, newest first
func (h *MangaHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListApproved(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// GetManga returns an approved manga
func (h *MangaHandler) GetManga(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	m, err := h.service.GetApproved(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

// ListOwn lists the requester's manga in every status
func (h *MangaHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListOwn(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// ListPending lists the moderation queue
func (h *MangaHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPending(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// CreateManga creates a pending manga owned by the requester
func (h *MangaHandler) CreateManga(w http.ResponseWriter, r *http.Request) {
	var req CreateMangaRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.service.CreateManga(r.Context(), IdentityFromContext(r.Context()), mangacontent.CreateMangaRequest{
		Title:       req.Title,
		Genre:       req.Genre,
		Chapters:    req.Chapters,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Manga created", "manga_id", m.ID.String(), "owner_id", m.OwnerID.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, m)
}

// UpdateManga edits metadata and sends the manga back to review
func (h *MangaHandler) UpdateManga(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	var req UpdateMangaRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.service.UpdateManga(r.Context(), IdentityFromContext(r.Context()), id, req.toService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

// DeleteManga removes a manga together with its cover and files
func (h *MangaHandler) DeleteManga(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteManga(r.Context(), IdentityFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Manga deleted", "manga_id", id.String())
	render.JSON(w, r, MessageResponse{Message: "Manga deleted successfully"})
}

// Approve publishes a manga
func (h *MangaHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	m, err := h.service.Approve(r.Context(), IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

// Reject rejects a manga with an optional reason
func (h *MangaHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.service.Reject(r.Context(), IdentityFromContext(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

// UploadCover stores a new cover image
func (h *MangaHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	upload, cleanup, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	m, err := h.service.UploadCover(r.Context(), IdentityFromContext(r.Context()), id, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CoverResponse{
		Message:  "Cover uploaded successfully",
		Status:   m.Status,
		CoverURL: coverURL(m.ID),
	})
}

// UploadFile attaches a page image, PDF or archive
func (h *MangaHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	upload, cleanup, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	m, file, err := h.service.AttachFile(r.Context(), IdentityFromContext(r.Context()), id, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, UploadResponse{
		Message: "File uploaded successfully. Manga status set to pending moderation",
		Status:  m.Status,
		File:    toFileResponse(m.ID, *file),
	})
}

// GetCover streams the cover of an approved manga
func (h *MangaHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	_, blob, err := h.service.OpenCover(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	streamBlob(w, r, blob, "")
}

// GetPages lists the attachments, or streams one when fileId is given
func (h *MangaHandler) GetPages(w http.ResponseWriter, r *http.Request) {
	id, ok := mangaID(w, r)
	if !ok {
		return
	}
	who := IdentityFromContext(r.Context())

	if fileID := r.URL.Query().Get("fileId"); fileID != "" {
		file, blob, err := h.service.OpenFile(r.Context(), who, id, fileID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var attachment string
		if r.URL.Query().Get("download") == "true" {
			attachment = objectkey.SanitizeFilename(file.OriginalName)
		}
		streamBlob(w, r, blob, attachment)
		return
	}

	m, files, err := h.service.ListFiles(r.Context(), who, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, PagesResponse{
		MangaID: m.ID,
		Status:  m.Status,
		Files:   toFileResponses(m.ID, files),
	})
}

func mangaID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid manga id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into v. An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, v interface{}, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	var validation *mangacontent.ValidationError
	if errors.As(err, &validation) {
		return validation
	}
	return mangacontent.Invalid("body", "Invalid request body")
}

// readUpload parses the multipart form and returns the "file" part.
func readUpload(w http.ResponseWriter, r *http.Request) (mangacontent.UploadRequest, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, mangacontent.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return mangacontent.UploadRequest{}, nil, mangacontent.Invalid("file", "File exceeds the %d MiB limit", mangacontent.MaxUploadSize/(1024*1024))
		}
		return mangacontent.UploadRequest{}, nil, mangacontent.Invalid("file", "Expected a multipart form with a file field")
	}
	removeForm := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		removeForm()
		return mangacontent.UploadRequest{}, nil, mangacontent.Invalid("file", "File is required")
	}

	page, err := mangacontent.ParsePageNumber(r.FormValue("pageNumber"))
	if err != nil {
		file.Close()
		removeForm()
		return mangacontent.UploadRequest{}, nil, err
	}

	cleanup := func() {
		file.Close()
		removeForm()
	}
	return mangacontent.UploadRequest{
		Filename:    header.Filename,
		ContentType: partContentType(header),
		Size:        header.Size,
		PageNumber:  page,
		Body:        file,
	}, cleanup, nil
}

func partContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

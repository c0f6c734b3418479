package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tendant/manga-content/pkg/mangacontent"
)

// IsStreamRequest reports whether r reads file bytes through
// GET /manga/{id}/cover or GET /manga/{id}/pages?fileId=.
func IsStreamRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "manga" {
		return false
	}
	switch parts[2] {
	case "cover":
		return true
	case "pages":
		return r.URL.Query().Get("fileId") != ""
	}
	return false
}

// streamWriter records whether any part of the response has been sent
type streamWriter struct {
	http.ResponseWriter
	wroteHeader bool
	written     int64
}

func (sw *streamWriter) WriteHeader(statusCode int) {
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *streamWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

// streamBlob copies blob to the response and closes it. A failure before the
// first byte becomes a JSON error, a later one ends the response early.
func streamBlob(w http.ResponseWriter, r *http.Request, blob *mangacontent.Blob, attachment string) {
	defer blob.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if blob.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	if attachment != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment))
	}

	sw := &streamWriter{ResponseWriter: w}
	if _, err := io.Copy(sw, blob); err != nil {
		if !sw.wroteHeader {
			w.Header().Del("Content-Length")
			w.Header().Del("Content-Disposition")
			writeError(w, r, &mangacontent.StorageError{Backend: "blob", Key: blob.ID, Op: "read", Err: err})
			return
		}
		slog.WarnContext(r.Context(), "Stream interrupted",
			"file_id", blob.ID, "bytes_written", sw.written, "error", err)
	}
}

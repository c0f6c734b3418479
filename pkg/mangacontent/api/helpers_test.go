package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"github.com/tendant/manga-content/pkg/mangacontent/repo/memory"
	memorystorage "github.com/tendant/manga-content/pkg/mangacontent/storage/memory"
)

type apiTest struct {
	router    chi.Router
	service   mangacontent.Service
	auth      *Authenticator
	directory *memory.Directory

	owner     mangacontent.Identity
	stranger  mangacontent.Identity
	moderator mangacontent.Identity
	admin     mangacontent.Identity
}

// setupAPITest wires the real router over in-memory backends
func setupAPITest(t *testing.T) *apiTest {
	t.Helper()

	service, err := mangacontent.New(
		mangacontent.WithRepository(memory.New()),
		mangacontent.WithBlobStore(memorystorage.New()),
	)
	require.NoError(t, err)

	directory := memory.NewDirectory()
	tokens := jwtauth.New("HS256", []byte("test-secret"), nil)
	auth := NewAuthenticator(tokens, directory, time.Hour)

	at := &apiTest{
		router:    NewRouter(service, auth),
		service:   service,
		auth:      auth,
		directory: directory,
		owner:     mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleUser},
		stranger:  mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleUser},
		moderator: mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleModerator},
		admin:     mangacontent.Identity{ID: uuid.New(), Role: mangacontent.RoleAdmin},
	}
	for _, identity := range []mangacontent.Identity{at.owner, at.stranger, at.moderator, at.admin} {
		directory.Put(identity)
	}
	return at
}

func (at *apiTest) token(t *testing.T, identity mangacontent.Identity) string {
	t.Helper()
	token, _, err := at.auth.IssueToken(identity)
	require.NoError(t, err)
	return token
}

// do sends a request; identity may be nil for anonymous calls
func (at *apiTest) do(t *testing.T, method, path string, identity *mangacontent.Identity, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if identity != nil {
		req.Header.Set("Authorization", "Bearer "+at.token(t, *identity))
	}
	w := httptest.NewRecorder()
	at.router.ServeHTTP(w, req)
	return w
}

func (at *apiTest) doJSON(t *testing.T, method, path string, identity *mangacontent.Identity, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return at.do(t, method, path, identity, body, "application/json")
}

func (at *apiTest) upload(t *testing.T, path string, identity *mangacontent.Identity, filename, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, formType := multipartBody(t, filename, contentType, data, fields)
	return at.do(t, http.MethodPost, path, identity, body, formType)
}

func multipartBody(t *testing.T, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeBody(t, w, &resp)
	return resp.Message
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Moonlit Ferry",
		"genre":       "adventure",
		"chapters":    5,
		"description": "A ferry that only runs at night",
		"releaseYear": 2018,
	}
}

// createManga creates a manga through the API and uploads a cover
func (at *apiTest) createManga(t *testing.T, withCover bool) mangacontent.Manga {
	t.Helper()
	w := at.doJSON(t, http.MethodPost, "/manga", &at.owner, validCreateBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m mangacontent.Manga
	decodeBody(t, w, &m)

	if withCover {
		w = at.upload(t, "/manga/"+m.ID.String()+"/cover", &at.owner, "cover.png", "image/png", []byte("cover-data"), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	return m
}

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("DOCOUTLINE_API_KEY", testKey)
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(pipeline.NewProcessor(log), log, cfg)
}

type upload struct {
	field, filename string
	content         []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOutline_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/api/outline", nil, upload{"file", "a.md", []byte("# A\n\nb\n")})
	req.Header.Del("Authorization")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = multipartRequest(t, "/api/outline", nil, upload{"file", "a.md", []byte("# A\n\nb\n")})
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode(t, rec)["error"])
}

func TestOutline_Markdown(t *testing.T) {
	s := newTestServer(t)
	md := "lead-in\n\n# Section A\n\nbody\n"

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "/api/outline", nil, upload{"file", "notes.md", []byte(md)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "notes", res.Title)
	require.Len(t, res.Sections, 2)
	assert.Nil(t, res.Sections[0].Heading)
	assert.Equal(t, []string{"lead-in"}, res.Sections[0].Paragraphs)
	assert.Equal(t, "Section A", res.Sections[1].Title())
	assert.Equal(t, []string{"body"}, res.Sections[1].Paragraphs)
	assert.Empty(t, res.Chunks)

	// The leading section serializes its heading as null.
	raw := decode(t, rec)
	first := raw["sections"].([]any)[0].(map[string]any)
	v, ok := first["heading"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestOutline_ChunksAndTitleOverride(t *testing.T) {
	s := newTestServer(t)
	md := "# Only\n\n" + strings.Repeat("word word word word word. ", 64)

	req := multipartRequest(t, "/api/outline",
		map[string]string{"chunk": "true", "chunk_size": "100", "overlap": "10", "title": "Custom"},
		upload{"file", "big.md", []byte(md)})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Custom", res.Title)
	assert.NotEmpty(t, res.Chunks)
	for i, c := range res.Chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestOutline_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		file   upload
		status int
	}{
		{"unsupported extension", nil, upload{"file", "data.csv", []byte("a,b")}, http.StatusBadRequest},
		{"missing file", nil, upload{"other", "a.md", []byte("x")}, http.StatusBadRequest},
		{"bad policy", map[string]string{"policy": "chapter"}, upload{"file", "a.md", []byte("x")}, http.StatusBadRequest},
		{"unreadable pdf", nil, upload{"file", "broken.pdf", []byte("not a pdf")}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, multipartRequest(t, "/api/outline", tt.fields, tt.file))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestOutline_TooLarge(t *testing.T) {
	s := newTestServer(t)
	s.cfg.MaxUploadBytes = 16

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, multipartRequest(t, "/api/outline", nil,
		upload{"file", "a.md", bytes.Repeat([]byte("x"), 64)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestOutline_BodyBeyondFormAllowance(t *testing.T) {
	s := newTestServer(t)
	s.cfg.MaxUploadBytes = 16

	// Past MaxUploadBytes plus the form allowance, the body reader itself
	// cuts the request off while the form is parsed.
	tests := []struct {
		path, field string
		size        int
	}{
		{"/api/outline", "file", 2 << 20},
		{"/api/outline/batch", "files", 11 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, multipartRequest(t, tt.path, nil,
				upload{tt.field, "a.md", bytes.Repeat([]byte("x"), tt.size)}))
			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec)["error"], "upload exceeds max size")
		})
	}
}

func TestRequestLogger_RecordsOutline(t *testing.T) {
	t.Setenv("DOCOUTLINE_API_KEY", testKey)
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	s := NewServer(pipeline.NewProcessor(slog.New(slog.DiscardHandler)), log, config.Load())

	req := multipartRequest(t, "/api/outline", map[string]string{"policy": "page"},
		upload{"file", "a.md", []byte("# A\n\none\n\n# B\n\ntwo\n")})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entry map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(logs.String()), "\n") {
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		if e["msg"] == "outline served" {
			entry = e
		}
	}
	require.NotNil(t, entry, logs.String())
	assert.Equal(t, "page", entry["flush_policy"])
	assert.EqualValues(t, 1, entry["documents"])
	assert.EqualValues(t, 1, entry["pages"])
	assert.EqualValues(t, 2, entry["sections"])
	assert.EqualValues(t, 0, entry["chunks"])
	assert.EqualValues(t, 200, entry["status"])
}

func TestRequestLogger_HealthHasNoOutline(t *testing.T) {
	t.Setenv("DOCOUTLINE_API_KEY", testKey)
	var logs bytes.Buffer
	s := NewServer(pipeline.NewProcessor(slog.New(slog.DiscardHandler)),
		slog.New(slog.NewJSONHandler(&logs, nil)), config.Load())

	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, logs.String(), `"msg":"request"`)
	assert.NotContains(t, logs.String(), "flush_policy")
}

func TestBatchOutline(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/api/outline/batch", map[string]string{"policy": "page"},
		upload{"files", "a.md", []byte("# A\n\none\n")},
		upload{"files", "b.html", []byte("<h2>B</h2><p>two</p>")},
		upload{"files", "c.txt", []byte("plain")},
	)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	docs := decode(t, rec)["documents"].([]any)
	require.Len(t, docs, 3)
	assert.Contains(t, docs[0].(map[string]any), "outline")
	assert.Contains(t, docs[1].(map[string]any), "outline")
	assert.Contains(t, docs[2].(map[string]any)["error"], "unsupported file type")
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd.md": "passwd.md",
		`C:\docs\a.pdf`:       `C:_docs_a.pdf`,
		"":                    "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}

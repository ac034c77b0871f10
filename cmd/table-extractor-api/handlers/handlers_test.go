package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/table-extractor/internal/artifact"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/extract"
	"github.com/spherical/table-extractor/internal/observability"
)

type fakePipeline struct {
	result  *domain.Result
	err     error
	gotPath string
}

func (f *fakePipeline) Process(ctx context.Context, pdfPath string) (*domain.Result, error) {
	f.gotPath = pdfPath
	return f.result, f.err
}

type memoryStore struct {
	mu     sync.Mutex
	data   []byte
	putErr error
	getErr error
}

func (m *memoryStore) Put(ctx context.Context, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memoryStore) Get(ctx context.Context) (*artifact.Artifact, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, artifact.ErrNotFound
	}
	return &artifact.Artifact{Data: m.data, ModTime: time.Now()}, nil
}

func (m *memoryStore) Close() error { return nil }

// multipartBody builds a form with one part. An empty field skips the part
// entirely; withFilename=false sends the part without a filename parameter.
func multipartBody(t *testing.T, field, filename string, withFilename bool, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		h := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, field)
		if withFilename {
			disposition += fmt.Sprintf(`; filename="%s"`, filename)
		}
		h.Set("Content-Disposition", disposition)
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type testServer struct {
	upload     *UploadHandler
	download   *DownloadHandler
	pipeline   *fakePipeline
	store      *memoryStore
	uploadsDir string
}

func newTestServer(t *testing.T, pipeline *fakePipeline) *testServer {
	t.Helper()
	store := &memoryStore{}
	dir := filepath.Join(t.TempDir(), "uploads")
	logger := observability.Nop()
	return &testServer{
		upload:     NewUploadHandler(logger, pipeline, store, dir, 1<<20),
		download:   NewDownloadHandler(logger, store),
		pipeline:   pipeline,
		store:      store,
		uploadsDir: dir,
	}
}

func (s *testServer) post(t *testing.T, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.upload.Upload(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func successResult() *domain.Result {
	return &domain.Result{
		JobID: "job",
		Records: []domain.Record{
			{CourseCode: "CS101", CourseName: "Intro", Section: "A1"},
		},
		Workbook: []byte("PK-workbook"),
		Tables:   1,
	}
}

func TestUpload_Success(t *testing.T) {
	s := newTestServer(t, &fakePipeline{result: successResult()})

	body, ct := multipartBody(t, FormField, "schedule.pdf", true, []byte("%PDF-1.4"))
	rec := s.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":[{"Course Code":"CS101","Course Name":"Intro","Section":"A1"}]}`, rec.Body.String())
	assert.Equal(t, []byte("PK-workbook"), s.store.data)

	assert.Equal(t, s.uploadsDir, filepath.Dir(s.pipeline.gotPath))
	assert.Contains(t, filepath.Base(s.pipeline.gotPath), "_schedule.pdf")
	data, err := os.ReadFile(s.pipeline.gotPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestUpload_EmptyRecordsIsEmptyArray(t *testing.T) {
	result := successResult()
	result.Records = nil
	s := newTestServer(t, &fakePipeline{result: result})

	body, ct := multipartBody(t, FormField, "schedule.pdf", true, []byte("%PDF-1.4"))
	rec := s.post(t, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestUpload_BadRequests(t *testing.T) {
	tests := []struct {
		name         string
		field        string
		filename     string
		withFilename bool
		want         string
	}{
		{name: "no pdf part", field: "", want: MsgNoFilePart},
		{name: "wrong field name", field: "file", filename: "a.pdf", withFilename: true, want: MsgNoFilePart},
		{name: "empty filename", field: FormField, filename: "", withFilename: true, want: MsgNoSelectedFile},
		{name: "no filename parameter", field: FormField, withFilename: false, want: MsgNoSelectedFile},
		{name: "dot dot filename", field: FormField, filename: "..", withFilename: true, want: MsgInvalidFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakePipeline{result: successResult()})

			body, ct := multipartBody(t, tt.field, tt.filename, tt.withFilename, []byte("%PDF-1.4"))
			rec := s.post(t, body, ct)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
			assert.Empty(t, s.pipeline.gotPath, "pipeline must not run")
			assert.Nil(t, s.store.data)
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	s := newTestServer(t, &fakePipeline{result: successResult()})

	rec := s.post(t, bytes.NewBufferString(`{"pdf":"x"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgNoFilePart, decodeError(t, rec))
}

func TestUpload_TooLarge(t *testing.T) {
	s := newTestServer(t, &fakePipeline{result: successResult()})

	body, ct := multipartBody(t, FormField, "big.pdf", true, bytes.Repeat([]byte("x"), 2<<20))
	rec := s.post(t, body, ct)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, MsgFileTooLarge, decodeError(t, rec))
}

func TestUpload_PipelineFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rasterize",
			err:  domain.StageError(domain.StageRasterize, extract.MsgRasterizeFailed, errors.New("corrupt")),
			want: "Failed to convert PDF to image",
		},
		{
			name: "extract",
			err:  domain.StageError(domain.StageExtract, extract.MsgExtractFailed, domain.ErrNoTables),
			want: "Failed to extract table from image",
		},
		{
			name: "columns",
			err:  domain.StageError(domain.StageSelect, extract.MsgColumnsNotFound, domain.ErrColumnsNotFound),
			want: "Required columns not found",
		},
		{
			name: "unexpected",
			err:  errors.New("disk full"),
			want: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakePipeline{err: tt.err})

			body, ct := multipartBody(t, FormField, "schedule.pdf", true, []byte("%PDF-1.4"))
			rec := s.post(t, body, ct)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
			assert.Nil(t, s.store.data, "failed runs must not publish")
		})
	}
}

func TestUpload_PublishFailure(t *testing.T) {
	s := newTestServer(t, &fakePipeline{result: successResult()})
	s.store.putErr = errors.New("redis down")

	body, ct := multipartBody(t, FormField, "schedule.pdf", true, []byte("%PDF-1.4"))
	rec := s.post(t, body, ct)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgPublishFailed, decodeError(t, rec))
}

func TestDownload_NotFoundBeforeUpload(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})

	rec := httptest.NewRecorder()
	s.download.Download(rec, httptest.NewRequest(http.MethodGet, "/download", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgNotFound, decodeError(t, rec))
}

func TestDownload_AfterUpload(t *testing.T) {
	s := newTestServer(t, &fakePipeline{result: successResult()})

	body, ct := multipartBody(t, FormField, "schedule.pdf", true, []byte("%PDF-1.4"))
	require.Equal(t, http.StatusOK, s.post(t, body, ct).Code)

	rec := httptest.NewRecorder()
	s.download.Download(rec, httptest.NewRequest(http.MethodGet, "/download", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.WorkbookContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=result.xlsx", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte("PK-workbook"), rec.Body.Bytes())
}

func TestDownload_StoreFailure(t *testing.T) {
	s := newTestServer(t, &fakePipeline{})
	s.store.getErr = errors.New("bucket unreachable")

	rec := httptest.NewRecorder()
	s.download.Download(rec, httptest.NewRequest(http.MethodGet, "/download", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "bucket unreachable", decodeError(t, rec))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, extract.MsgExtractFailed,
		ErrorMessage(fmt.Errorf("wrapped: %w", domain.StageError(domain.StageExtract, extract.MsgExtractFailed, nil))))
	assert.Equal(t, "[io] failed to read workbook: boom",
		ErrorMessage(domain.IOError("failed to read workbook", errors.New("boom"))))
	assert.Equal(t, "context canceled",
		ErrorMessage(domain.UnexpectedError(context.Canceled.Error(), context.Canceled)))
}

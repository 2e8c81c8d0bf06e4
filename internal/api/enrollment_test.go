package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/voiceprint"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, wav []byte) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubEmbedder) Dimension() int { return len(s.vector) }

func multipartClips(t *testing.T, clips map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, data := range clips {
		part, err := w.CreateFormFile("clips", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func enrollRequest(t *testing.T, h *EnrollmentHandler, speaker string, clips map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartClips(t, clips)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voiceprints/"+speaker, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("speaker")
	c.SetParamValues(speaker)

	if err := h.Enroll(c); err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	return rec
}

func wavClip() []byte {
	buf := make([]byte, 64)
	copy(buf, "RIFF\x00\x00\x00\x00WAVE")
	return buf
}

func TestEnrollStoresTemplates(t *testing.T) {
	store := voiceprint.NewStore(filepath.Join(t.TempDir(), "voiceprints.json"), zap.NewNop())
	h := NewEnrollmentHandler(store, &stubEmbedder{vector: []float32{1, 0, 0}}, zap.NewNop())

	rec := enrollRequest(t, h, "Hilla", map[string][]byte{
		"clip1.wav": wavClip(),
		"clip2.wav": wavClip(),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp EnrollResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Speaker != "Hilla" || resp.EnrolledClips != 2 {
		t.Errorf("unexpected response %+v", resp)
	}

	db, err := store.Load()
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if got := len(db["Hilla"]); got != 2 {
		t.Errorf("expected 2 stored templates, got %d", got)
	}
}

func TestEnrollRejectsNonWAV(t *testing.T) {
	store := voiceprint.NewStore(filepath.Join(t.TempDir(), "voiceprints.json"), zap.NewNop())
	h := NewEnrollmentHandler(store, &stubEmbedder{vector: []float32{1, 0, 0}}, zap.NewNop())

	rec := enrollRequest(t, h, "Hilla", map[string][]byte{
		"clip1.mp3": []byte("ID3 definitely not wav"),
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "malformed_audio" {
		t.Errorf("expected malformed_audio, got %q", resp.Error)
	}
}

func TestEnrollEmbedderFailure(t *testing.T) {
	store := voiceprint.NewStore(filepath.Join(t.TempDir(), "voiceprints.json"), zap.NewNop())
	h := NewEnrollmentHandler(store, &stubEmbedder{err: errors.New("service down")}, zap.NewNop())

	rec := enrollRequest(t, h, "Hilla", map[string][]byte{
		"clip1.wav": wavClip(),
	})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestEnrollRequiresClips(t *testing.T) {
	store := voiceprint.NewStore(filepath.Join(t.TempDir(), "voiceprints.json"), zap.NewNop())
	h := NewEnrollmentHandler(store, &stubEmbedder{vector: []float32{1, 0, 0}}, zap.NewNop())

	rec := enrollRequest(t, h, "Hilla", map[string][]byte{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "missing_clips" {
		t.Errorf("expected missing_clips, got %q", resp.Error)
	}
}

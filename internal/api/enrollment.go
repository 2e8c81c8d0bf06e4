package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/domain/repositories"
	"github.com/peepalabs/peepa-server/usecase"
	"github.com/peepalabs/peepa-server/voiceprint"
)

// EnrollmentHandler enrolls speakers from uploaded WAV clips. Writes to the
// voiceprint store are serialized by the store itself.
type EnrollmentHandler struct {
	store    *voiceprint.Store
	embedder repositories.VoiceEmbedder
	logger   *zap.Logger
}

// NewEnrollmentHandler creates an enrollment handler.
func NewEnrollmentHandler(store *voiceprint.Store, embedder repositories.VoiceEmbedder, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{store: store, embedder: embedder, logger: logger}
}

// Enroll handles POST /api/v1/voiceprints/:speaker with multipart "clips".
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	speaker := c.Param("speaker")
	if speaker == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_speaker",
			Message: "Speaker name is required",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Expected multipart form with WAV clips",
		})
	}
	files := form.File["clips"]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_clips",
			Message: "At least one clip is required",
		})
	}

	embeddings := make([][]float32, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unreadable_clip",
				Message: fmt.Sprintf("Failed to open clip %s", fh.Filename),
			})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unreadable_clip",
				Message: fmt.Sprintf("Failed to read clip %s", fh.Filename),
			})
		}
		if !usecase.LooksLikeWAV(data) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "malformed_audio",
				Message: fmt.Sprintf("Clip %s is not a WAV file", fh.Filename),
			})
		}

		vec, err := h.embedder.Embed(c.Request().Context(), data)
		if err != nil {
			h.logger.Error("Embedding clip failed",
				zap.String("speaker", speaker),
				zap.String("clip", fh.Filename),
				zap.Error(err))
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "embedding_failed",
				Message: "Voice embedding service failed",
			})
		}
		embeddings = append(embeddings, vec)
	}

	if err := h.store.Enroll(speaker, embeddings); err != nil {
		h.logger.Error("Enrollment failed", zap.String("speaker", speaker), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "enrollment_failed",
			Message: "Failed to persist voiceprints",
		})
	}

	return c.JSON(http.StatusOK, EnrollResponse{
		Speaker:       speaker,
		EnrolledClips: len(embeddings),
	})
}

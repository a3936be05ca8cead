package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/voicedit/internal/models"
	"github.com/yoockh/voicedit/internal/services"
	"github.com/yoockh/voicedit/internal/utils"
)

const (
	MsgMissingRecognise = "Missing m4a_file or smart_mode parameter"
	MsgMissingEdit      = "Missing m4a_file or text parameter"
	MsgRecognitionError = "Error during recognition."
	MsgEditingError     = "Error during editing."
	MsgFileTooLarge     = "Audio file too large."
)

// multipart framing allowance on top of the audio part itself
const formOverhead = 1 << 20

var errUploadTooLarge = errors.New("upload exceeds limit")

type RecognitionHandler struct {
	svc            services.RecognitionService
	log            *logrus.Logger
	maxUploadBytes int64
}

func NewRecognitionHandler(svc services.RecognitionService, log *logrus.Logger, maxUploadBytes int64) *RecognitionHandler {
	if log == nil {
		log = logrus.New()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 << 20
	}
	return &RecognitionHandler{svc: svc, log: log, maxUploadBytes: maxUploadBytes}
}

type RecognitionResponse struct {
	Transcript string `json:"transcript"`
}

type EditResponse struct {
	EditedText string `json:"edited_text"`
}

func (h *RecognitionHandler) Recognise(c *gin.Context) {
	const op = "RecognitionHandler.Recognise"

	h.limitBody(c)
	fh, ferr := c.FormFile("m4a_file")
	smartRaw, hasSmart := c.GetPostForm("smart_mode")

	if tooLarge(ferr) {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, MsgFileTooLarge, ferr))
		return
	}
	if ferr != nil || !hasSmart || fh.Size == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, MsgMissingRecognise, ferr))
		return
	}

	blob, err := h.readBlob(fh)
	if err != nil {
		h.uploadError(c, op, MsgRecognitionError, err)
		return
	}

	smart := strings.EqualFold(smartRaw, "true")

	// upstream calls are not cancelled when the client goes away
	ctx := context.WithoutCancel(c.Request.Context())
	transcript, err := h.svc.Recognise(ctx, blob, smart)

	entry := h.log.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"bytes":      len(blob.Data),
		"smart_mode": smart,
	})
	if err != nil {
		entry.WithError(err).Error("recognition failed")
		writeError(c, utils.E(utils.CodeOperation, op, MsgRecognitionError, err))
		return
	}
	entry.WithField("chars", len(transcript)).Info("recognition succeeded")

	c.JSON(http.StatusOK, RecognitionResponse{Transcript: transcript})
}

func (h *RecognitionHandler) Edit(c *gin.Context) {
	const op = "RecognitionHandler.Edit"

	h.limitBody(c)
	fh, ferr := c.FormFile("m4a_file")
	text, hasText := c.GetPostForm("text")

	if tooLarge(ferr) {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, MsgFileTooLarge, ferr))
		return
	}
	if ferr != nil || !hasText || fh.Size == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, MsgMissingEdit, ferr))
		return
	}

	blob, err := h.readBlob(fh)
	if err != nil {
		h.uploadError(c, op, MsgEditingError, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	edited, err := h.svc.Edit(ctx, blob, text)

	entry := h.log.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"bytes":      len(blob.Data),
		"text_chars": len(text),
	})
	if err != nil {
		entry.WithError(err).Error("editing failed")
		writeError(c, utils.E(utils.CodeOperation, op, MsgEditingError, err))
		return
	}
	entry.WithField("chars", len(edited)).Info("editing succeeded")

	c.JSON(http.StatusOK, EditResponse{EditedText: edited})
}

func (h *RecognitionHandler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverhead)
}

func (h *RecognitionHandler) readBlob(fh *multipart.FileHeader) (models.AudioBlob, error) {
	if fh.Size > h.maxUploadBytes {
		return models.AudioBlob{}, errUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return models.AudioBlob{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return models.AudioBlob{}, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return models.AudioBlob{}, errUploadTooLarge
	}

	return models.AudioBlob{Filename: fh.Filename, Data: data}, nil
}

func (h *RecognitionHandler) uploadError(c *gin.Context, op, failMsg string, err error) {
	if errors.Is(err, errUploadTooLarge) {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, MsgFileTooLarge, err))
		return
	}
	h.log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("failed to read upload")
	writeError(c, utils.E(utils.CodeOperation, op, failMsg, err))
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

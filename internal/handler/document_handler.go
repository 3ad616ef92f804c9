package handler

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/service"
)

var pdfMagic = []byte("%PDF-")

type DocumentHandler struct {
	chat     *service.ChatService
	maxBytes int64
}

func NewDocumentHandler(chat *service.ChatService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{chat: chat, maxBytes: maxBytes}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		response.Error(c, errcode.ErrInvalidFile, "file exceeds "+formatUploadLimit(h.maxBytes))
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		response.Error(c, errcode.ErrInvalidFile, "only pdf files are accepted")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := opened.ReadAt(head, 0); err != nil || !bytes.Equal(head, pdfMagic) {
		response.Error(c, errcode.ErrExtraction, h.chat.ExtractionFailedMessage())
		return
	}
	res, err := h.chat.Ingest(c.Request.Context(), middleware.SessionID(c), filepath.Base(file.Filename), opened, file.Size)
	if err != nil {
		handleError(c, err, h.chat.UserMessage(err))
		return
	}
	response.Success(c, res)
}

func (h *DocumentHandler) Stats(c *gin.Context) {
	status, err := h.chat.Statistics(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, err, "")
		return
	}
	response.Success(c, status)
}

func formatUploadLimit(n int64) string {
	const mb = 1024 * 1024
	value := n / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}

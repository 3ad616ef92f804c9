package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
)

type errMapping struct {
	kind error
	code int
	msg  string
}

var errMappings = []errMapping{
	{appErr.ErrInvalid, errcode.ErrInvalid, "invalid request"},
	{appErr.ErrUnauthorized, errcode.ErrUnauthorized, "unauthorized"},
	{appErr.ErrNotFound, errcode.ErrNotFound, "not found"},
	{appErr.ErrConflict, errcode.ErrConflict, "conflict"},
	{appErr.ErrTooMany, errcode.ErrTooMany, "too many requests"},
	{appErr.ErrExtraction, errcode.ErrExtraction, "pdf extraction failed"},
	{appErr.ErrNoDocumentLoaded, errcode.ErrNoDocumentLoaded, "no document loaded"},
	{appErr.ErrIndexNotBuilt, errcode.ErrIndexNotBuilt, "index not built"},
	{appErr.ErrModelUnavailable, errcode.ErrModelUnavailable, "model unavailable"},
	{appErr.ErrGeneration, errcode.ErrGeneration, "generation failed"},
}

// handleError logs err and answers with the code of its kind. userMsg, when
// set, replaces the generic message.
func handleError(c *gin.Context, err error, userMsg string) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("session_id", middleware.SessionID(c)),
		zap.Error(err),
	)
	for _, m := range errMappings {
		if errors.Is(err, m.kind) {
			msg := m.msg
			if userMsg != "" {
				msg = userMsg
			}
			response.Error(c, m.code, msg)
			return
		}
	}
	response.Error(c, errcode.ErrInternal, "internal error")
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/jwt"
	"github.com/xxxsen/pdfchat/internal/pkg/password"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/session"
)

type SessionHandler struct {
	store         *session.Store
	secret        []byte
	ttl           time.Duration
	accessKeyHash string
}

func NewSessionHandler(store *session.Store, secret []byte, ttl time.Duration, accessKeyHash string) *SessionHandler {
	return &SessionHandler{store: store, secret: secret, ttl: ttl, accessKeyHash: accessKeyHash}
}

type createSessionRequest struct {
	AccessKey string `json:"access_key"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	if err := password.Verify(h.accessKeyHash, req.AccessKey); err != nil {
		response.Error(c, errcode.ErrUnauthorized, "invalid access key")
		return
	}
	sess, err := h.store.Create(c.Request.Context())
	if err != nil {
		handleError(c, err, "")
		return
	}
	token, err := jwt.GenerateToken(sess.ID(), h.secret, h.ttl)
	if err != nil {
		h.store.Delete(sess.ID())
		handleError(c, err, "")
		return
	}
	response.Success(c, createSessionResponse{
		SessionID: sess.ID(),
		Token:     token,
		ExpiresAt: time.Now().Add(h.ttl).Unix(),
	})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	h.store.Delete(middleware.SessionID(c))
	response.Success(c, gin.H{"ok": true})
}

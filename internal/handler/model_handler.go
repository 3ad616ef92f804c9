package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
)

type ModelStatus interface {
	State() ai.State
	LastError() error
	Config() model.GenerationConfig
}

type ModelHandler struct {
	manager ModelStatus
}

func NewModelHandler(manager ModelStatus) *ModelHandler {
	return &ModelHandler{manager: manager}
}

type modelStatusResponse struct {
	State      string                 `json:"state"`
	Ready      bool                   `json:"ready"`
	LastError  string                 `json:"last_error,omitempty"`
	Generation model.GenerationConfig `json:"generation"`
}

func (h *ModelHandler) Status(c *gin.Context) {
	state := h.manager.State()
	resp := modelStatusResponse{
		State:      state.String(),
		Ready:      state == ai.StateReady,
		Generation: h.manager.Config(),
	}
	if err := h.manager.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	response.Success(c, resp)
}

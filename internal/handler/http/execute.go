package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// executeFailed is the payload-level error string; the HTTP status stays
// 200 so clients render failures in the output pane like any other run.
const executeFailed = "Error executing code. Please try again."

// CodeRunner is the remote execution upstream as the handler sees it.
type CodeRunner interface {
	Run(ctx context.Context, language, code string) (string, error)
}

// ExecuteHandler proxies code runs to the execution upstream.
type ExecuteHandler struct {
	runner CodeRunner
	log    *logrus.Logger
}

// NewExecuteHandler creates the code-execution proxy handler.
func NewExecuteHandler(runner CodeRunner, log *logrus.Logger) *ExecuteHandler {
	if runner == nil {
		panic("CodeRunner cannot be nil for ExecuteHandler")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ExecuteHandler{runner: runner, log: log}
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type executeResponse struct {
	Output string `json:"output"`
}

// Execute handles POST /api/execute. It never returns an error status:
// failures are embedded in the payload so the client treats them as output.
func (h *ExecuteHandler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, executeResponse{Output: executeFailed})
		return
	}

	output, err := h.runner.Run(c.Request.Context(), req.Language, req.Code)
	if err != nil {
		h.log.WithError(err).Error("Code execution upstream failed")
		c.JSON(http.StatusOK, executeResponse{Output: executeFailed})
		return
	}

	c.JSON(http.StatusOK, executeResponse{Output: output})
}

package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string { return e.msg }

func (e codeErr) Code() uint32 { return e.code }

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error answers with http 200; the failure travels in the body code.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, codeErr{code: uint32(code), msg: message})
}

// Abort is Error for middlewares: later handlers in the chain are skipped.
func Abort(c *gin.Context, code int, message string) {
	Error(c, code, message)
	c.Abort()
}

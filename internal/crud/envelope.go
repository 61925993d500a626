// Package crud – response envelope.
//
// Every create, retrieve, update and delete response is wrapped in the same
// JSON envelope; list responses return the pagination page directly. The
// envelope signals failure purely through its code/err_code pair; the HTTP
// status stays 200 for business errors, so clients branch on err_code, never
// on transport status.
//
// Example success:
//
//	{ "code": 0, "data": {"id": 3, "name": "go"}, "err_code": "0000", "msg": "" }
//
// Example failure:
//
//	{ "code": -1, "data": "", "err_code": "0002", "msg": "[name] is duplicate" }
package crud

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xqin/go-blog-backend/internal/http/middleware"
	"github.com/xqin/go-blog-backend/internal/status"
)

// Envelope is the uniform response wrapper. code is 0 on success and -1 on
// error; the invariant code == -1 iff err_code != "0000" always holds.
type Envelope struct {
	Code    int         `json:"code"`
	Data    any         `json:"data"`
	ErrCode status.Code `json:"err_code"`
	Msg     string      `json:"msg"`
}

// Success builds a success envelope around data. A nil data serializes as
// the empty string, matching the error shape.
func Success(data any) Envelope {
	if data == nil {
		data = ""
	}
	return Envelope{Code: 0, Data: data, ErrCode: status.Success, Msg: ""}
}

// Failure builds an error envelope from err. Status errors keep their code
// and templated message; anything else degrades to the unknown code with the
// error text passed through verbatim.
func Failure(err error) Envelope {
	se := status.From(err)
	return Envelope{Code: -1, Data: "", ErrCode: se.Code, Msg: se.Error()}
}

// respond writes a success envelope with HTTP 200.
func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Success(data))
}

// respondErr writes an error envelope with HTTP 200. Failures that fell
// through to the unknown code are logged with the request-scoped logger;
// deliberate validation signals are not worth log noise.
func respondErr(c *gin.Context, err error) {
	env := Failure(err)
	if env.ErrCode == status.Unknown {
		middleware.LoggerFrom(c).Error().
			Str("err_code", string(env.ErrCode)).
			Str("message", env.Msg).
			Msg("request degraded to unknown error")
	}
	c.JSON(http.StatusOK, env)
}

// Package gateway is the HTTP edge of the service: the JSON-RPC envelope,
// endpoint declarations and the authorization gate every call passes.
package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

const genericServerError = "An internal error occurred"

type successBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorBody struct {
	Success           bool        `json:"success"`
	Error             string      `json:"error"`
	ErrorCode         apperr.Code `json:"error_code"`
	Field             string      `json:"field,omitempty"`
	RetryAfterSeconds int         `json:"retry_after_seconds,omitempty"`
}

// rpcRequest is the JSON-RPC style request envelope.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

func writeSuccess(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(successBody{Success: true, Data: data})
}

// writeError renders err as an error envelope. Errors without a code
// never leak their message.
func writeError(c *fiber.Ctx, err error) error {
	body := errorBody{ErrorCode: apperr.ServerError, Error: genericServerError}
	if e, ok := apperr.As(err); ok && e.Code != apperr.ServerError {
		body.ErrorCode = e.Code
		body.Error = e.Message
		body.Field = e.Field
		body.RetryAfterSeconds = e.RetryAfter
	}
	c.Locals(localErrorCode, string(body.ErrorCode))
	return c.Status(fiber.StatusOK).JSON(body)
}

// extractParams accepts either a full envelope or a bare params object.
// An empty body is an empty object.
func extractParams(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, apperr.Validationf("params", "request body must be a JSON object")
	}
	if _, ok := probe["jsonrpc"]; !ok {
		return json.RawMessage(body), nil
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperr.Validationf("params", "malformed request envelope")
	}
	params := bytes.TrimSpace(req.Params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	if params[0] != '{' {
		return nil, apperr.Validationf("params", "params must be an object")
	}
	return json.RawMessage(params), nil
}

// RawBody is returned by handlers that serve bytes instead of an envelope.
type RawBody struct {
	ContentType string
	Data        []byte
}

package handler

import "github.com/clinicore/scheduling-api/internal/service/scheduling"

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewResultResponse wraps a failed scheduling result, surfacing its
// stable error code alongside the human-readable message.
func NewResultResponse(result *scheduling.Result) *Response {
	return &Response{
		Status:  "error",
		Code:    string(result.ErrorCode),
		Message: result.ErrorMessage,
	}
}

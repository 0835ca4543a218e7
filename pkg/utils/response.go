package utils

import "github.com/gin-gonic/gin"

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// Code classifies failures, e.g. "backend_unavailable" or "timeout".
	Code string `json:"code,omitempty"`
	// Notice is the passive, user-facing text for a failure.
	Notice string `json:"notice,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// NoticeResponse reports a failure together with the notice the dashboard
// should surface.
func NoticeResponse(c *gin.Context, status int, code, message, notice string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Notice:  notice,
	})
}

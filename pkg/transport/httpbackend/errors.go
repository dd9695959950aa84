package httpbackend

import (
	"fmt"
	"net/http"
)

// APIError is returned for non-2xx responses. Message is the backend's own
// error text when it sent one.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return "Hệ thống đang quá tải (Rate Limit). Vui lòng thử lại sau giây lát."
	case http.StatusUnauthorized:
		return "Phiên làm việc hết hạn hoặc API Key không hợp lệ."
	case http.StatusInternalServerError:
		return fmt.Sprintf("Lỗi nội bộ Server (500). Chi tiết: %s", e.Message)
	default:
		return e.Message
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

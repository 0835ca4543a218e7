package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kernex-dashboard/internal/logger"
	"kernex-dashboard/internal/middleware"
	appErrors "kernex-dashboard/pkg/errors"
	"kernex-dashboard/pkg/utils"
)

const backendUnavailableNotice = "Control plane is unavailable. Please try again later"

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var (
		transportErr *appErrors.TransportError
		normErr      *appErrors.NormalizationError
		appErr       *appErrors.AppError
	)

	switch {
	case errors.Is(err, appErrors.ErrBackendUnavailable):
		utils.NoticeResponse(c, http.StatusServiceUnavailable, "backend_unavailable", err.Error(), backendUnavailableNotice)
	case errors.As(err, &transportErr):
		utils.NoticeResponse(c, transportStatus(transportErr), string(transportErr.Kind), transportErr.Error(), transportErr.Notice())
	case errors.As(err, &normErr):
		utils.NoticeResponse(c, http.StatusBadGateway, "invalid_payload", normErr.Error(), "Unexpected response from the control plane")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "request cancelled before the control plane answered")
	case errors.As(err, &appErr):
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
	default:
		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// transportStatus maps a control-plane failure onto the status the
// dashboard sees. Client errors from the control plane pass through.
func transportStatus(err *appErrors.TransportError) int {
	switch err.Kind {
	case appErrors.KindTimeout:
		return http.StatusGatewayTimeout
	case appErrors.KindUnauthorized:
		return http.StatusUnauthorized
	case appErrors.KindForbidden:
		return http.StatusForbidden
	case appErrors.KindNotFound:
		return http.StatusNotFound
	case appErrors.KindStatus:
		if err.StatusCode >= 400 && err.StatusCode < 500 {
			return err.StatusCode
		}
	}
	return http.StatusBadGateway
}

// bindAndValidate decodes a JSON body into req and runs struct validation.
// It writes the 400 response itself and reports whether to continue.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondWithError(c, appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err))
		return false
	}
	return true
}

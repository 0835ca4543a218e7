package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"kernex-dashboard/internal/fleet/model"
	"kernex-dashboard/internal/fleet/ranking"
	"kernex-dashboard/internal/fleet/service"
	"kernex-dashboard/internal/middleware"
	appErrors "kernex-dashboard/pkg/errors"
	"kernex-dashboard/pkg/utils"
)

const (
	defaultHistoryLimit = 10
	defaultLogLimit     = 100
	maxListLimit        = 1000
)

type FleetHandler struct {
	service *service.Service
}

func NewFleetHandler(service *service.Service) *FleetHandler {
	return &FleetHandler{service: service}
}

func (h *FleetHandler) RegisterRoutes(router *gin.RouterGroup) {
	jsonBody := middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize)

	devices := router.Group("/devices")
	{
		devices.GET("", h.ListDevices)
		devices.POST("/rollback", jsonBody, h.Rollback)
		devices.GET("/:id", h.GetDevice)
		devices.GET("/:id/config", h.GetDeviceConfig)
		devices.PUT("/:id/config", jsonBody, h.UpdateDeviceConfig)
		devices.GET("/:id/bundle-history", h.BundleHistory)
	}

	bundles := router.Group("/bundles")
	{
		bundles.GET("", h.ListBundles)
		bundles.POST("", middleware.RequestSizeLimitMiddleware(middleware.MaxBundleUploadSize), h.UploadBundle)
	}

	deployments := router.Group("/deployments")
	{
		deployments.GET("", h.ListDeployments)
		deployments.POST("", jsonBody, h.CreateDeployment)
	}

	router.GET("/logs", h.Logs)

	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/metrics", h.Metrics)
		dashboard.GET("/chart", h.Chart)
		dashboard.GET("/success-rate", h.SuccessRate)
		dashboard.GET("/overview", h.Overview)
	}
}

func (h *FleetHandler) ListDevices(c *gin.Context) {
	query, field, ascending, ok := parseDeviceListFilter(c)
	if !ok {
		return
	}

	devices, err := h.service.RankedDevices(c.Request.Context(), query, field, ascending)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", devices)
}

func (h *FleetHandler) GetDevice(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	device, err := h.service.Device(c.Request.Context(), deviceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", device)
}

func (h *FleetHandler) GetDeviceConfig(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	cfg, err := h.service.DeviceConfig(c.Request.Context(), deviceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device config retrieved successfully", cfg)
}

func (h *FleetHandler) UpdateDeviceConfig(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateDeviceConfigRequest
	if !bindAndValidate(c, &req) {
		return
	}

	cfg, err := h.service.UpdateDeviceConfig(c.Request.Context(), deviceID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device config updated successfully", cfg)
}

func (h *FleetHandler) BundleHistory(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}
	limit, ok := limitQuery(c, defaultHistoryLimit)
	if !ok {
		return
	}

	history, err := h.service.BundleHistory(c.Request.Context(), deviceID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bundle history retrieved successfully", history)
}

func (h *FleetHandler) Rollback(c *gin.Context) {
	var req model.RollbackRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.BundleVersion = utils.SanitizeIdentifier(req.BundleVersion)
	req.TargetDeviceIDs = utils.SanitizeIdentifiers(req.TargetDeviceIDs)

	receipt, err := h.service.Rollback(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Rollback initiated", receipt)
}

func (h *FleetHandler) ListBundles(c *gin.Context) {
	bundles, err := h.service.Bundles(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bundles retrieved successfully", bundles)
}

// UploadBundle forwards a multipart upload: a "file" part and an optional
// "manifest" field holding a JSON object.
func (h *FleetHandler) UploadBundle(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Bundle file is required")
		return
	}

	manifest := map[string]any{}
	if raw := c.PostForm("manifest"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Manifest must be a JSON object")
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unable to read bundle file")
		return
	}
	defer file.Close()

	receipt, err := h.service.UploadBundle(c.Request.Context(), fileHeader.Filename, file, manifest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Bundle uploaded successfully", receipt)
}

func (h *FleetHandler) ListDeployments(c *gin.Context) {
	deployments, err := h.service.Deployments(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Deployments retrieved successfully", deployments)
}

func (h *FleetHandler) CreateDeployment(c *gin.Context) {
	var req model.CreateDeploymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.BundleVersion = utils.SanitizeIdentifier(req.BundleVersion)
	req.TargetDevices = utils.SanitizeIdentifiers(req.TargetDevices)

	receipt, err := h.service.CreateDeployment(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Deployment created successfully", receipt)
}

func (h *FleetHandler) Logs(c *gin.Context) {
	limit, ok := limitQuery(c, defaultLogLimit)
	if !ok {
		return
	}

	logs, err := h.service.Logs(c.Request.Context(), limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Logs retrieved successfully", logs)
}

func (h *FleetHandler) Metrics(c *gin.Context) {
	metrics, err := h.service.Metrics(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Metrics retrieved successfully", metrics)
}

func (h *FleetHandler) Chart(c *gin.Context) {
	chart, err := h.service.Chart(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chart data retrieved successfully", chart)
}

func (h *FleetHandler) SuccessRate(c *gin.Context) {
	rate, err := h.service.SuccessRate(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Success rate retrieved successfully", rate)
}

// Overview always answers 200; panels that failed are listed in errors.
func (h *FleetHandler) Overview(c *gin.Context) {
	query, field, ascending, ok := parseDeviceListFilter(c)
	if !ok {
		return
	}

	overview := h.service.Overview(c.Request.Context(), query, field, ascending)
	utils.SuccessResponse(c, http.StatusOK, "Overview retrieved successfully", overview)
}

func parseDeviceListFilter(c *gin.Context) (query string, field ranking.SortField, ascending bool, ok bool) {
	var filter model.DeviceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return "", 0, false, false
	}
	if err := utils.ValidateStruct(filter); err != nil {
		respondWithError(c, appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err))
		return "", 0, false, false
	}

	field, err := ranking.ParseSortField(filter.Sort)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return "", 0, false, false
	}
	return filter.Query, field, filter.Order != "desc", true
}

func deviceIDParam(c *gin.Context) (string, bool) {
	deviceID := c.Param("id")
	if !utils.IsIdentifier(deviceID) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid device ID")
		return "", false
	}
	return deviceID, true
}

func limitQuery(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxListLimit {
		utils.ErrorResponse(c, http.StatusBadRequest, "limit must be between 1 and 1000")
		return 0, false
	}
	return limit, true
}

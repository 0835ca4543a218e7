package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"kernex-dashboard/internal/events"
	"kernex-dashboard/internal/fleet/model"
)

// Operations below talk to the control plane directly. They have no
// fallback: the dashboard does not support offline writes.

func (s *Service) Device(ctx context.Context, deviceID string) (model.Device, error) {
	raw, err := s.client.GetDevice(ctx, deviceID)
	if err != nil {
		return model.Device{}, err
	}
	return s.normalizer.Device(0, *raw)
}

func (s *Service) DeviceConfig(ctx context.Context, deviceID string) (model.DeviceConfig, error) {
	raw, err := s.client.GetDeviceConfig(ctx, deviceID)
	if err != nil {
		return model.DeviceConfig{}, err
	}
	return s.normalizer.DeviceConfig(raw)
}

func (s *Service) UpdateDeviceConfig(ctx context.Context, deviceID string, req *model.UpdateDeviceConfigRequest) (model.DeviceConfig, error) {
	raw, err := s.client.UpdateDeviceConfig(ctx, deviceID, req)
	if err != nil {
		return model.DeviceConfig{}, err
	}
	cfg, err := s.normalizer.DeviceConfig(raw)
	if err != nil {
		return model.DeviceConfig{}, err
	}

	s.publish(ctx, events.New(events.DeviceConfigUpdated, map[string]any{
		"device_id": cfg.DeviceID,
		"version":   cfg.Version,
	}))
	return cfg, nil
}

func (s *Service) BundleHistory(ctx context.Context, deviceID string, limit int) ([]model.BundleHistoryEntry, error) {
	raw, err := s.client.BundleHistory(ctx, deviceID, limit)
	if err != nil {
		return nil, err
	}
	return s.normalizer.BundleHistory(raw)
}

func (s *Service) Logs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	raw, err := s.client.Logs(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Logs(raw), nil
}

func (s *Service) UploadBundle(ctx context.Context, filename string, file io.Reader, manifest map[string]any) (model.BundleReceipt, error) {
	created, err := s.client.UploadBundle(ctx, filename, file, manifest)
	if err != nil {
		return model.BundleReceipt{}, err
	}

	receipt := model.BundleReceipt{
		BundleID:       created.BundleID,
		Version:        created.Version,
		ChecksumSHA256: created.ChecksumSHA256,
	}
	s.publish(ctx, events.New(events.BundleUploaded, map[string]any{
		"bundle_id": receipt.BundleID,
		"version":   receipt.Version,
	}))
	return receipt, nil
}

func (s *Service) CreateDeployment(ctx context.Context, req *model.CreateDeploymentRequest) (model.DeploymentReceipt, error) {
	created, err := s.client.CreateDeployment(ctx, req)
	if err != nil {
		return model.DeploymentReceipt{}, err
	}

	receipt := model.DeploymentReceipt{
		DeploymentID: created.DeploymentID,
		Status:       created.Status,
	}
	s.publish(ctx, events.New(events.DeploymentCreated, map[string]any{
		"deployment_id":  receipt.DeploymentID,
		"bundle_version": req.BundleVersion,
		"target_devices": req.TargetDevices,
	}))
	return receipt, nil
}

func (s *Service) Rollback(ctx context.Context, req *model.RollbackRequest) (model.RollbackReceipt, error) {
	raw, err := s.client.Rollback(ctx, req)
	if err != nil {
		return model.RollbackReceipt{}, err
	}

	receipt := model.RollbackReceipt{
		DeploymentID:    raw.DeploymentID,
		Status:          raw.Status,
		BundleVersion:   raw.BundleVersion,
		TargetDeviceIDs: raw.TargetDeviceIDs,
	}
	s.publish(ctx, events.New(events.RollbackRequested, map[string]any{
		"deployment_id":     receipt.DeploymentID,
		"bundle_version":    receipt.BundleVersion,
		"target_device_ids": receipt.TargetDeviceIDs,
	}))
	return receipt, nil
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error) {
	return s.client.Register(ctx, req)
}

// Login forwards credentials; the client keeps the issued token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthToken, error) {
	return s.client.Login(ctx, req)
}

func (s *Service) Logout() {
	s.client.Logout()
}

// publish never fails the operation that triggered it.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish operator event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

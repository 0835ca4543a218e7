package model

type CreateDeploymentRequest struct {
	BundleVersion string   `json:"bundle_version" validate:"required,max=100,identifier"`
	TargetDevices []string `json:"target_devices" validate:"required,min=1,dive,required,identifier"`
}

type RollbackRequest struct {
	BundleVersion   string   `json:"bundle_version" validate:"required,max=100,identifier"`
	TargetDeviceIDs []string `json:"target_device_ids" validate:"required,min=1,dive,required,identifier"`
}

type UpdateDeviceConfigRequest struct {
	PollingInterval  string         `json:"polling_interval" validate:"omitempty,numeric"`
	HeartbeatTimeout string         `json:"heartbeat_timeout" validate:"omitempty,numeric"`
	DeployTimeout    string         `json:"deploy_timeout" validate:"omitempty,numeric"`
	LogLevel         string         `json:"log_level" validate:"omitempty,oneof=DEBUG INFO WARNING ERROR"`
	MetadataJSON     map[string]any `json:"metadata_json,omitempty"`
}

type DeviceListFilter struct {
	Query string `form:"q" validate:"omitempty,max=200"`
	Sort  string `form:"sort" validate:"omitempty,oneof=name status version lastHeartbeat"`
	Order string `form:"order" validate:"omitempty,oneof=asc desc"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128,strong_password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type Account struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

package controlplane

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"kernex-dashboard/internal/fleet/model"
	appErrors "kernex-dashboard/pkg/errors"
)

func (c *Client) ListDevices(ctx context.Context) ([]RawDevice, error) {
	var resp deviceListResponse
	if err := c.do(ctx, "list devices", http.MethodGet, "/devices", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

func (c *Client) GetDevice(ctx context.Context, deviceID string) (*RawDevice, error) {
	var resp RawDevice
	if err := c.do(ctx, "get device", http.MethodGet, "/devices/"+url.PathEscape(deviceID), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetDeviceConfig(ctx context.Context, deviceID string) (*RawDeviceConfig, error) {
	var resp RawDeviceConfig
	path := "/devices/" + url.PathEscape(deviceID) + "/config"
	if err := c.do(ctx, "get device config", http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateDeviceConfig(ctx context.Context, deviceID string, req *model.UpdateDeviceConfigRequest) (*RawDeviceConfig, error) {
	var resp RawDeviceConfig
	path := "/devices/" + url.PathEscape(deviceID) + "/config"
	if err := c.doJSON(ctx, "update device config", http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) BundleHistory(ctx context.Context, deviceID string, limit int) ([]RawBundleHistory, error) {
	var resp []RawBundleHistory
	path := "/devices/" + url.PathEscape(deviceID) + "/bundle-history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, "bundle history", http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListBundles(ctx context.Context) ([]RawBundle, error) {
	var resp bundleListResponse
	if err := c.do(ctx, "list bundles", http.MethodGet, "/bundles", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Bundles, nil
}

// UploadBundle posts the bundle archive as multipart form data with the
// manifest serialized into its own form field.
func (c *Client) UploadBundle(ctx context.Context, filename string, file io.Reader, manifest map[string]any) (*RawBundleCreated, error) {
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("upload bundle: encode manifest: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("upload bundle: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("upload bundle: read archive: %w", err)
	}
	if err := writer.WriteField("manifest", string(manifestJSON)); err != nil {
		return nil, fmt.Errorf("upload bundle: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("upload bundle: %w", err)
	}

	var resp RawBundleCreated
	if err := c.do(ctx, "upload bundle", http.MethodPost, "/bundles", &body, writer.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDeployments(ctx context.Context) ([]RawDeployment, error) {
	var resp deploymentListResponse
	if err := c.do(ctx, "list deployments", http.MethodGet, "/deployments", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Deployments, nil
}

func (c *Client) CreateDeployment(ctx context.Context, req *model.CreateDeploymentRequest) (*RawDeploymentCreated, error) {
	var resp RawDeploymentCreated
	if err := c.doJSON(ctx, "create deployment", http.MethodPost, "/deployments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Rollback(ctx context.Context, req *model.RollbackRequest) (*RawRollback, error) {
	var resp RawRollback
	if err := c.doJSON(ctx, "rollback", http.MethodPost, "/devices/rollback", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logs(ctx context.Context, limit int) ([]RawLog, error) {
	var resp logListResponse
	path := "/logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, "list logs", http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

func (c *Client) Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error) {
	var resp model.Account
	if err := c.doJSON(ctx, "register", http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for an access token and stores it so that
// later requests carry the bearer header.
func (c *Client) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthToken, error) {
	var resp model.AuthToken
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &appErrors.TransportError{Op: "login", Kind: appErrors.KindDecode, Err: appErrors.ErrTokenInvalid}
	}
	if c.tokens != nil {
		c.tokens.SetToken(resp.AccessToken, secondsToDuration(resp.ExpiresIn))
	}
	return &resp, nil
}

// Logout forgets the stored token. The control plane keeps no session.
func (c *Client) Logout() {
	if c.tokens != nil {
		c.tokens.ClearToken()
	}
}

func secondsToDuration(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}

package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/pkg/models"
)

// Client issues commands to a running daemon over its HTTP API.
type Client struct {
	resty *resty.Client
}

// NewClient returns a client for the daemon at baseURL. Commands are never
// retried; a failure is terminal for the action that triggered it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}

	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "tynamo/"+core.Version).
		SetHeader("Accept", "application/json")

	return &Client{resty: r}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.resty.R().
		SetContext(ctx).
		SetError(&models.ErrorResponse{})
}

// check turns a transport error or a non-2xx response into a *CommandError.
func check(command string, resp *resty.Response, err error) error {
	if err != nil {
		return &CommandError{Command: command, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	msg := resp.Status()
	if body, ok := resp.Error().(*models.ErrorResponse); ok && body.Error != "" {
		msg = body.Error
	}
	return &CommandError{
		Command: command,
		Status:  resp.StatusCode(),
		Err:     errors.New(msg),
	}
}

func (c *Client) ListProcesses(ctx context.Context) ([]core.ProcessInfo, error) {
	var out []core.ProcessInfo
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/processes")
	if err := check(CmdListProcesses, resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTrackedApps(ctx context.Context) ([]core.TrackedApp, error) {
	var out []core.TrackedApp
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/apps")
	if err := check(CmdGetTrackedApps, resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUsage(ctx context.Context) ([]core.AppUsage, error) {
	var out []core.AppUsage
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/usage")
	if err := check(CmdGetUsage, resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddApp(ctx context.Context, name, exePath string) error {
	resp, err := c.request(ctx).
		SetBody(models.AddAppRequest{Name: name, ExePath: exePath}).
		Post("/api/v1/apps")
	return check(CmdAddApp, resp, err)
}

func (c *Client) RemoveApp(ctx context.Context, name string, deleteUsage bool) error {
	resp, err := c.request(ctx).
		SetPathParam("name", name).
		SetQueryParam("delete_usage", strconv.FormatBool(deleteUsage)).
		Delete("/api/v1/apps/{name}")
	return check(CmdRemoveApp, resp, err)
}

func (c *Client) UpdateApp(ctx context.Context, name string, totalSeconds int64) error {
	resp, err := c.request(ctx).
		SetPathParam("name", name).
		SetBody(models.UpdateTimeRequest{TotalSeconds: &totalSeconds}).
		Put("/api/v1/apps/{name}/time")
	return check(CmdUpdateApp, resp, err)
}

func (c *Client) UpdateDisplayName(ctx context.Context, name, displayName string) error {
	resp, err := c.request(ctx).
		SetPathParam("name", name).
		SetBody(models.DisplayNameRequest{DisplayName: displayName}).
		Put("/api/v1/apps/{name}/display-name")
	return check(CmdUpdateDisplayName, resp, err)
}

func (c *Client) TogglePause(ctx context.Context, name string) (bool, error) {
	var out models.PauseResponse
	resp, err := c.request(ctx).
		SetPathParam("name", name).
		SetResult(&out).
		Post("/api/v1/apps/{name}/pause")
	if err := check(CmdTogglePause, resp, err); err != nil {
		return false, err
	}
	return out.Paused, nil
}

// Health fetches the daemon's health report.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	resp, err := c.request(ctx).SetResult(&out).Get("/api/v1/health")
	if err := check("health", resp, err); err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, fmt.Errorf("empty health response")
	}
	return &out, nil
}

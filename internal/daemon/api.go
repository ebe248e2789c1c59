package daemon

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
	"github.com/yowainwright/tynamo/internal/storage"
	"github.com/yowainwright/tynamo/pkg/models"
)

func (d *Daemon) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	// App names may contain escaped slashes.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), d.requestLogger())

	v1 := r.Group("/api/v1")
	v1.GET("/processes", d.handleListProcesses)
	v1.GET("/apps", d.handleGetApps)
	v1.POST("/apps", d.handleAddApp)
	v1.DELETE("/apps/:name", d.handleRemoveApp)
	v1.PUT("/apps/:name/time", d.handleUpdateTime)
	v1.PUT("/apps/:name/display-name", d.handleUpdateDisplayName)
	v1.POST("/apps/:name/pause", d.handleTogglePause)
	v1.GET("/usage", d.handleGetUsage)
	v1.GET("/health", d.handleHealth)

	r.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	return r
}

func (d *Daemon) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrAppNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAppExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail records a failed command and writes the error body.
func (d *Daemon) fail(c *gin.Context, command string, err error) {
	d.metrics.RecordCommand(command, err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		d.logger.Error("command failed", zap.String("command", command), zap.Error(err))
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func (d *Daemon) badRequest(c *gin.Context, command string, err error) {
	d.metrics.RecordCommand(command, err)
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
}

func (d *Daemon) updateTrackedGauge() {
	if apps, err := d.storage.GetApps(); err == nil {
		d.metrics.TrackedApps.Set(float64(len(apps)))
	}
}

func (d *Daemon) handleListProcesses(c *gin.Context) {
	procs, err := d.gateway.ListProcesses(c.Request.Context())
	if err != nil {
		d.fail(c, gateway.CmdListProcesses, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdListProcesses, nil)
	if procs == nil {
		procs = []core.ProcessInfo{}
	}
	c.JSON(http.StatusOK, procs)
}

func (d *Daemon) handleGetApps(c *gin.Context) {
	apps, err := d.gateway.GetTrackedApps(c.Request.Context())
	if err != nil {
		d.fail(c, gateway.CmdGetTrackedApps, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdGetTrackedApps, nil)
	d.metrics.TrackedApps.Set(float64(len(apps)))
	c.JSON(http.StatusOK, apps)
}

func (d *Daemon) handleGetUsage(c *gin.Context) {
	usage, err := d.gateway.GetUsage(c.Request.Context())
	if err != nil {
		d.fail(c, gateway.CmdGetUsage, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdGetUsage, nil)
	c.JSON(http.StatusOK, usage)
}

func (d *Daemon) handleAddApp(c *gin.Context) {
	var req models.AddAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.badRequest(c, gateway.CmdAddApp, err)
		return
	}

	if err := d.gateway.AddApp(c.Request.Context(), req.Name, req.ExePath); err != nil {
		d.fail(c, gateway.CmdAddApp, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdAddApp, nil)
	d.updateTrackedGauge()
	d.logger.Info("app added", zap.String("name", req.Name))
	c.Status(http.StatusNoContent)
}

func (d *Daemon) handleRemoveApp(c *gin.Context) {
	name := c.Param("name")

	deleteUsage := false
	if raw := c.Query("delete_usage"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			d.badRequest(c, gateway.CmdRemoveApp, err)
			return
		}
		deleteUsage = v
	}

	if err := d.gateway.RemoveApp(c.Request.Context(), name, deleteUsage); err != nil {
		d.fail(c, gateway.CmdRemoveApp, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdRemoveApp, nil)
	d.updateTrackedGauge()
	d.logger.Info("app removed", zap.String("name", name), zap.Bool("delete_usage", deleteUsage))
	c.Status(http.StatusNoContent)
}

func (d *Daemon) handleUpdateTime(c *gin.Context) {
	var req models.UpdateTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.badRequest(c, gateway.CmdUpdateApp, err)
		return
	}
	if *req.TotalSeconds < 0 {
		d.badRequest(c, gateway.CmdUpdateApp, errors.New("total_seconds must not be negative"))
		return
	}

	if err := d.gateway.UpdateApp(c.Request.Context(), c.Param("name"), *req.TotalSeconds); err != nil {
		d.fail(c, gateway.CmdUpdateApp, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdUpdateApp, nil)
	c.Status(http.StatusNoContent)
}

func (d *Daemon) handleUpdateDisplayName(c *gin.Context) {
	var req models.DisplayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.badRequest(c, gateway.CmdUpdateDisplayName, err)
		return
	}

	if err := d.gateway.UpdateDisplayName(c.Request.Context(), c.Param("name"), req.DisplayName); err != nil {
		d.fail(c, gateway.CmdUpdateDisplayName, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdUpdateDisplayName, nil)
	c.Status(http.StatusNoContent)
}

func (d *Daemon) handleTogglePause(c *gin.Context) {
	paused, err := d.gateway.TogglePause(c.Request.Context(), c.Param("name"))
	if err != nil {
		d.fail(c, gateway.CmdTogglePause, err)
		return
	}
	d.metrics.RecordCommand(gateway.CmdTogglePause, nil)
	c.JSON(http.StatusOK, models.PauseResponse{Paused: paused})
}

func (d *Daemon) handleHealth(c *gin.Context) {
	apps, _ := d.storage.GetApps()

	c.JSON(http.StatusOK, models.HealthStatus{
		Status:         "healthy",
		Version:        core.Version,
		Uptime:         time.Since(d.startTime).Round(time.Second).String(),
		TrackedApps:    len(apps),
		LastAccrual:    d.lastAccrual(),
		MonitorsActive: d.registry.Names(),
	})
}

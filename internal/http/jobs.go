package http

import (
	"net/http"
	"time"

	"github.com/cadencehq/audit-engine/internal/scheduler"
	echo "github.com/labstack/echo/v4"
)

func jobsStatusHandler(co *scheduler.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if co == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "coordinator not running in this process"})
		}
		return c.JSON(http.StatusOK, co.Status())
	}
}

type restartJobsReq struct {
	// job name -> interval, e.g. {"overdue_scan": "30m"}
	Jobs map[string]string `json:"jobs"`
}

func restartJobsHandler(co *scheduler.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if co == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "coordinator not running in this process"})
		}

		var req restartJobsReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		overrides := make(map[string]time.Duration, len(req.Jobs))
		for name, raw := range req.Jobs {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid interval for job " + name})
			}
			overrides[name] = d
		}

		co.Restart(overrides)

		return c.JSON(http.StatusOK, co.Status())
	}
}

package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/repository"
	"github.com/cadencehq/audit-engine/internal/service/lifecycle"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type createAuditReq struct {
	CompanyID     int64  `json:"company_id"`
	ScheduledDate string `json:"scheduled_date"` // RFC 3339
	AssignedTo    int64  `json:"assigned_to"`
	Notes         string `json:"notes"`
}

func createAuditHandler(mgr *lifecycle.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createAuditReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if req.CompanyID <= 0 || req.AssignedTo <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if utf8.RuneCountInString(req.Notes) > 2000 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "notes too long"})
		}

		scheduled, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledDate))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid scheduled_date"})
		}

		a, err := mgr.CreateAudit(c.Request().Context(), req.CompanyID, scheduled, req.AssignedTo, req.Notes)
		if err != nil {
			if errors.Is(err, lifecycle.ErrNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "company not found"})
			}

			log.Errorf("create audit failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, a)
	}
}

type completeAuditReq struct {
	Notes string `json:"notes"`
}

func completeAuditHandler(mgr *lifecycle.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		auditID := strings.TrimSpace(c.Param("id"))
		if auditID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing audit id"})
		}

		var req completeAuditReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		a, err := mgr.CompleteAudit(c.Request().Context(), auditID, req.Notes)
		if err != nil {
			log.Errorf("complete audit failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if a == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "audit not found"})
		}

		return c.JSON(http.StatusOK, a)
	}
}

type scheduleCompanyReq struct {
	CreatedBy int64 `json:"created_by"`
}

func scheduleCompanyHandler(mgr *lifecycle.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || companyID <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid company id"})
		}

		var req scheduleCompanyReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		a, err := mgr.ScheduleAuditForNewCompany(c.Request().Context(), companyID, req.CreatedBy)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "company not found"})
			case errors.Is(err, lifecycle.ErrNoEligibleAssignee):
				return c.JSON(http.StatusConflict, map[string]string{"error": "no eligible assignee"})
			}

			log.Errorf("schedule for company failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, a)
	}
}

func listAuditsHandler(audits repository.AuditsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var f repository.AuditFilter

		if v := c.QueryParam("company_id"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				f.CompanyID = n
			}
		}
		if v := c.QueryParam("assigned_to"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				f.AssignedTo = n
			}
		}
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			if st, ok := model.ParseAuditStatus(raw); ok {
				f.Status = st
			}
		}
		if v := c.QueryParam("from"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.ScheduledFrom = t
			}
		}
		if v := c.QueryParam("to"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				f.ScheduledTo = t
			}
		}
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				f.Limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				f.Offset = n
			}
		}

		rows, err := audits.ListByFilter(c.Request().Context(), f)
		if err != nil {
			c.Logger().Errorf("list audits failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(rows),
			"results": rows,
		})
	}
}

package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/cadencehq/audit-engine/internal/repository"
	echo "github.com/labstack/echo/v4"
)

func listAuditEventsHandler(chRepo repository.CHAuditEventsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := strconv.ParseInt(c.QueryParam("company_id"), 10, 64)
		if err != nil || companyID <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "company_id required"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		status := ""
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			if st, ok := model.ParseAuditStatus(raw); ok {
				status = st.String()
			}
		}

		events, err := chRepo.ListByCompany(c.Request().Context(), companyID, status, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(events),
			"results": events,
		})
	}
}

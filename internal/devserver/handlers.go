package devserver

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/client"
)

const maxLogLines = 1000

type processListResponse struct {
	Status string `json:"status"`
	client.ProcessSnapshot
}

func (s *Server) handleSystemStatus(c echo.Context) error {
	st, err := s.source.System(c.Request().Context())
	if err != nil {
		s.logger.Error("system status failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "System status retrieval failed: "+err.Error())
	}
	if st.Timestamp == nil {
		now := s.clock.Now()
		st.Timestamp = &now
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleProcesses(c echo.Context) error {
	q, err := parseProcessQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	p := currentUser(c)
	procs, err := s.source.Processes(c.Request().Context())
	if err != nil {
		s.audit(p, "process_list", "system", "failure", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Process list retrieval failed: "+err.Error())
	}

	out, matched := q.apply(procs)
	now := s.clock.Now()
	s.audit(p, "process_list", "system", "success", zap.Int("returned_processes", len(out)))
	return c.JSON(http.StatusOK, processListResponse{
		Status: "success",
		ProcessSnapshot: client.ProcessSnapshot{
			Processes:         out,
			TotalCount:        matched,
			ReturnedProcesses: len(out),
			TotalProcesses:    len(procs),
			SortBy:            q.SortBy,
			Filters:           q.filters(),
			Timestamp:         &now,
		},
	})
}

func (s *Server) handleLogs(c echo.Context) error {
	service := c.Param("service")
	if !servicePattern.MatchString(service) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid service name")
	}
	lines := 100
	if raw := c.QueryParam("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLogLines {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "lines must be between 1 and 1000")
		}
		lines = n
	}

	p := currentUser(c)
	if !slices.Contains(s.cfg.LogServices, service) {
		s.audit(p, "log_view", service, "denied")
		return echo.NewHTTPError(http.StatusForbidden, "Service not allowed: "+service)
	}

	tail := s.logs.tail(service, lines)
	now := s.clock.Now()
	s.audit(p, "log_view", service, "success", zap.Int("lines_returned", len(tail)))
	return c.JSON(http.StatusOK, client.LogsResponse{
		Status:         "success",
		Service:        service,
		LinesRequested: lines,
		LinesReturned:  len(tail),
		Logs:           tail,
		Timestamp:      &now,
	})
}

func (s *Server) handleRestart(c echo.Context) error {
	var req client.RestartRequest
	if err := c.Bind(&req); err != nil || !servicePattern.MatchString(req.ServiceName) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid service name")
	}

	p := currentUser(c)
	if !slices.Contains(s.cfg.AllowedServices, req.ServiceName) {
		s.audit(p, "service_restart", req.ServiceName, "denied")
		return echo.NewHTTPError(http.StatusForbidden, "Service not allowed: "+req.ServiceName)
	}

	s.logs.restart(req.ServiceName)
	s.audit(p, "service_restart", req.ServiceName, "success")
	return c.JSON(http.StatusOK, client.RestartResult{
		Status:  "success",
		Service: req.ServiceName,
		Before:  "active",
		After:   "active",
	})
}

package handlers

import (
	"net/http"
	"strconv"

	"jobtracker/internal/services"

	"github.com/labstack/echo/v4"
)

type JobHandlers struct {
	ops *services.Operations
}

func NewJobHandlers(ops *services.Operations) *JobHandlers {
	return &JobHandlers{ops: ops}
}

// CreateJob posts a job in the caller's tenant.
func (h *JobHandlers) CreateJob(c echo.Context) error {
	var req services.CreateJobCommand
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return dispatch(c, h.ops.CreateJob, req, http.StatusCreated)
}

// ListJobs returns one page of postings, newest first.
func (h *JobHandlers) ListJobs(c echo.Context) error {
	var q services.ListJobsQuery
	for _, p := range []struct {
		name string
		dest *int
	}{{"page", &q.Page}, {"page_size", &q.PageSize}} {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, p.name, "must be an integer")
		}
		*p.dest = n
	}

	q.SearchTerm = c.QueryParam("search_term")
	q.Department = c.QueryParam("department")

	if raw := c.QueryParam("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "is_active", "must be true or false")
		}
		q.IsActive = &active
	}

	return dispatch(c, h.ops.ListJobs, q, http.StatusOK)
}

// GetJob returns one posting with its application count.
func (h *JobHandlers) GetJob(c echo.Context) error {
	return dispatch(c, h.ops.GetJob, services.GetJobQuery{ID: c.Param("id")}, http.StatusOK)
}

func (h *JobHandlers) RegisterRoutes(g *echo.Group) {
	jobs := g.Group("/jobs")
	jobs.POST("", h.CreateJob)
	jobs.GET("", h.ListJobs)
	jobs.GET("/:id", h.GetJob)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmesh/mentorship/internal/core/ports"
)

// ApplicationHandler handles HTTP requests for the application lifecycle.
type ApplicationHandler struct {
	applications ports.ApplicationService
}

func NewApplicationHandler(applications ports.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Submit handles POST /api/applications.
//
// @Summary      Apply to a project
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submitApplicationRequest  true  "Target project and message"
// @Success      201   {object}  domain.Application
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /applications [post]
func (h *ApplicationHandler) Submit(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req submitApplicationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := h.applications.Submit(c.Request().Context(), caller, ports.SubmitApplicationInput{
		ProjectID: req.ProjectID,
		Message:   req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, app)
}

// ListForProject handles GET /api/applications/project/:projectId.
//
// @Summary      List the applications of an owned project
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true  "Project id"
// @Success      200        {array}   ports.ApplicationWithStudent
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /applications/project/{projectId} [get]
func (h *ApplicationHandler) ListForProject(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	apps, err := h.applications.ListForProject(c.Request().Context(), caller, c.Param("projectId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

// Transition handles PUT /api/applications/:id.
//
// @Summary      Adjudicate an application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Application id"
// @Param        body  body      updateApplicationRequest  true  "New status and/or mentor flag"
// @Success      200   {object}  domain.Application
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /applications/{id} [put]
func (h *ApplicationHandler) Transition(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req updateApplicationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := h.applications.Transition(c.Request().Context(), caller, c.Param("id"), req.toUpdate())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// Withdraw handles DELETE /api/applications/:id.
//
// @Summary      Withdraw an own application
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Application id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /applications/{id} [delete]
func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	if err := h.applications.Withdraw(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "application withdrawn"})
}

// Mine handles GET /api/applications/my.
//
// @Summary      List own applications
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.ApplicationWithProject
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /applications/my [get]
func (h *ApplicationHandler) Mine(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	apps, err := h.applications.ListForStudent(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apps)
}

// ActiveProjectsOfStudent handles GET /api/applications/of-student/:studentId.
// The route is public.
//
// @Summary      Active projects a student was accepted into
// @Tags         applications
// @Produce      json
// @Param        studentId  path      string  true  "Student id"
// @Success      200        {array}   domain.Project
// @Router       /applications/of-student/{studentId} [get]
func (h *ApplicationHandler) ActiveProjectsOfStudent(c echo.Context) error {
	projects, err := h.applications.ActiveProjectsForStudent(c.Request().Context(), c.Param("studentId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

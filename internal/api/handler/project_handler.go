package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmesh/mentorship/internal/core/ports"
)

// ProjectHandler handles HTTP requests for project operations.
type ProjectHandler struct {
	projects ports.ProjectService
}

func NewProjectHandler(projects ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create handles POST /api/projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProjectRequest  true  "Project details"
// @Success      201   {object}  domain.Project
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req createProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	project, err := req.toProject()
	if err != nil {
		return err
	}

	created, err := h.projects.Create(c.Request().Context(), caller, project)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Mine handles GET /api/projects/my.
//
// @Summary      List own projects with their applications
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.ProjectWithApplications
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /projects/my [get]
func (h *ProjectHandler) Mine(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	projects, err := h.projects.ListMine(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// List handles GET /api/projects.
//
// @Summary      List all projects
// @Tags         projects
// @Produce      json
// @Success      200  {array}   ports.ProjectWithOwner
// @Router       /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	projects, err := h.projects.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Get handles GET /api/projects/:id.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  ports.ProjectWithOwner
// @Failure      404  {object}  map[string]string
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	project, err := h.projects.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Update handles PUT /api/projects/:id.
//
// @Summary      Update an owned project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Project id"
// @Param        body  body      updateProjectRequest  true  "Fields to change"
// @Success      200   {object}  domain.Project
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req updateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	update, err := req.toUpdate()
	if err != nil {
		return err
	}

	project, err := h.projects.Update(c.Request().Context(), caller, c.Param("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /api/projects/:id. Applications to the project are
// removed with it.
//
// @Summary      Delete an owned project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	if err := h.projects.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "project deleted"})
}

package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	projectdomain "github.com/smallbiznis/faktura/internal/project/domain"
)

type listProjectsQuery struct {
	PageToken       string `form:"page_token"`
	PageSize        int    `form:"page_size"`
	ContactID       string `form:"contact_id"`
	IncludeArchived string `form:"include_archived"`
}

func (s *Server) ListProjects(c *gin.Context) {
	var query listProjectsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := projectdomain.ListProjectRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
		ContactID: strings.TrimSpace(query.ContactID),
	}

	includeArchived, err := parseOptionalBool(query.IncludeArchived)
	if err != nil {
		AbortWithError(c, newValidationError("include_archived", "invalid_include_archived", "invalid include_archived"))
		return
	}
	if includeArchived != nil {
		req.IncludeArchived = *includeArchived
	}

	resp, err := s.projectSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Projects, "page_info": resp.PageInfo})
}

func (s *Server) CreateProject(c *gin.Context) {
	var body projectdomain.CreateProjectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.projectSvc.Create(c.Request.Context(), body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetProjectByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.projectSvc.GetByID(c.Request.Context(), projectdomain.GetProjectRequest{ID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateProject(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var body projectdomain.UpdateProjectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	body.ID = id

	item, err := s.projectSvc.Update(c.Request.Context(), body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

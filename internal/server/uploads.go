package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	uploaddomain "github.com/smallbiznis/faktura/internal/upload/domain"
)

type listUploadsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func (s *Server) ListUploads(c *gin.Context) {
	var query listUploadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.uploadSvc.List(c.Request.Context(), uploaddomain.ListUploadRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Uploads, "page_info": resp.PageInfo})
}

// CreateUpload stores the document from the multipart "file" field, runs
// extraction and returns the review invoice built from it.
func (s *Server) CreateUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "missing_file", "missing file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.uploadSvc.Create(c.Request.Context(), uploaddomain.CreateUploadRequest{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordUploadProcessed(c.Request.Context(), "rejected")
		}
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordUploadProcessed(c.Request.Context(), "stored")
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetUploadByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.uploadSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DownloadUploadFile(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, content, err := s.uploadSvc.OpenFile(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+item.FileName+`"`)
	c.Data(http.StatusOK, item.ContentType, content)
}

func (s *Server) DeleteUpload(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.uploadSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	applicationdomain "github.com/easyvisa/visaflow/internal/application/domain"
)

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if !s.credentials.Verify(req.Username, req.Password) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token, expiresAt := s.sessionStore.Create()
	s.sessions.Set(c, token, expiresAt)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) AdminLogout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		s.sessionStore.Revoke(token)
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListApplications(c *gin.Context) {
	apps, err := s.applicationSvc.List(c.Request.Context(), applicationdomain.ListFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

type updateStatusRequest struct {
	AppNumber string `json:"appNumber"`
	Status    string `json:"status"`
}

func (s *Server) UpdateApplicationStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	app, err := s.applicationSvc.UpdateStatus(c.Request.Context(), applicationdomain.UpdateStatusRequest{
		AppNumber: req.AppNumber,
		Status:    req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appNumber": app.AppNumber,
		"status":    app.Status,
	})
}

func (s *Server) ServeUpload(c *gin.Context) {
	path, err := s.uploads.Path(c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.File(path)
}

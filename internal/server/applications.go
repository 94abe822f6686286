package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	applicationdomain "github.com/easyvisa/visaflow/internal/application/domain"
)

func (s *Server) IssueApplicationNumber(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"appNumber": applicationdomain.NewAppNumber()})
}

func (s *Server) SubmitApplication(c *gin.Context) {
	req := applicationdomain.SubmitRequest{
		AppNumber:   c.PostForm("appNumber"),
		Firstname:   c.PostForm("firstname"),
		Middlename:  c.PostForm("middlename"),
		Lastname:    c.PostForm("lastname"),
		Email:       c.PostForm("email"),
		DOB:         c.PostForm("dob"),
		Nationality: c.PostForm("nationality"),
		Passport:    c.PostForm("passport"),
	}

	header, err := c.FormFile("passportFile")
	switch {
	case err == nil:
		storedName, saveErr := s.uploads.Save(header)
		if saveErr != nil {
			AbortWithError(c, saveErr)
			return
		}
		req.PassportFileName = storedName
	case errors.Is(err, http.ErrMissingFile):
		// the passport scan is optional
	default:
		AbortWithError(c, invalidRequestError())
		return
	}

	app, err := s.applicationSvc.Submit(c.Request.Context(), req)
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordSubmission("rejected")
		}
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordSubmission("accepted")
		s.obsMetrics.RecordEmail("sent")
	}
	c.JSON(http.StatusOK, gin.H{
		"appNumber": app.AppNumber,
		"status":    app.Status,
	})
}

type trackRequest struct {
	AppNumber string `json:"appNumber"`
	LastName  string `json:"lastName"`
}

func (s *Server) TrackApplication(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.applicationSvc.Track(c.Request.Context(), applicationdomain.TrackRequest{
		AppNumber: req.AppNumber,
		LastName:  req.LastName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/easyvisa/visaflow/internal/payment/domain"
)

type createCheckoutSessionRequest struct {
	Email     string `json:"email"`
	AppNumber string `json:"appNumber"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.CreateCheckoutSession(c.Request.Context(), paymentdomain.CheckoutSessionRequest{
		Email:     req.Email,
		AppNumber: req.AppNumber,
	})
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordCheckoutSession("error")
		}
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCheckoutSession("created")
	}
	c.JSON(http.StatusOK, resp)
}

// HandleStripeWebhook reads the raw body before anything touches it:
// signature verification covers the exact bytes Stripe sent.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.paymentSvc.HandleWebhook(c.Request.Context(), payload, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentEvent("verified")
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

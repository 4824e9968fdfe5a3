package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
)

// OrderItemPaid ingests a confirmed merchandise sale line from the order
// collaborator and accrues its commission rows.
func (s *Server) OrderItemPaid(c *gin.Context) {
	var ev commissiondomain.OrderItemPaid
	if err := c.ShouldBindJSON(&ev); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.accrualSvc.AccrueOrderItem(c.Request.Context(), ev)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": result})
}

// TicketPaid ingests a confirmed ticket sale from the ticketing
// collaborator and accrues its commission rows.
func (s *Server) TicketPaid(c *gin.Context) {
	var ev commissiondomain.TicketPaid
	if err := c.ShouldBindJSON(&ev); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.accrualSvc.AccrueTicket(c.Request.Context(), ev)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": result})
}

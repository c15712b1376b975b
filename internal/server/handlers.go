package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"payment-gateway/internal/service"
)

const defaultPageSize = 20

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "amount is required")
		return
	}
	order, err := s.orders.CreateOrder(c.Request.Context(), merchantFrom(c).ID, service.CreateOrderInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderView(order))
}

func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), c.Param("order_id"), merchantFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(order))
}

func (s *Server) handleGetPublicOrder(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), c.Param("order_id"), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPublicOrderView(order))
}

func (s *Server) handleCreatePayment(c *gin.Context) {
	s.createPayment(c, service.ModeMerchant, merchantFrom(c).ID)
}

func (s *Server) handleCreatePublicPayment(c *gin.Context) {
	s.createPayment(c, service.ModePublic, "")
}

func (s *Server) createPayment(c *gin.Context, mode service.Mode, merchantID string) {
	var body createPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "order_id and method are required")
		return
	}

	res, err := s.payments.CreatePayment(c.Request.Context(), mode, merchantID, body.toDomain(c.GetHeader(headerIdempotencyKey)))
	if err != nil {
		respondError(c, err)
		return
	}

	if res.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	status := http.StatusCreated
	if res.Pending {
		status = http.StatusAccepted
	}
	c.JSON(status, newPaymentView(res.Payment))
}

func (s *Server) handleGetPayment(c *gin.Context) {
	p, err := s.payments.GetPayment(c.Request.Context(), c.Param("payment_id"), merchantFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentView(p))
}

func (s *Server) handleGetPublicPayment(c *gin.Context) {
	p, err := s.payments.GetPayment(c.Request.Context(), c.Param("payment_id"), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPublicPaymentView(p))
}

func (s *Server) handleListPayments(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "limit must be a number")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "offset must be a number")
		return
	}

	limit, offset = service.ClampPage(limit, offset)
	ps, err := s.payments.ListPayments(c.Request.Context(), merchantFrom(c).ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]paymentView, 0, len(ps))
	for i := range ps {
		items = append(items, newPaymentView(&ps[i]))
	}
	c.JSON(http.StatusOK, paymentListView{Items: items, Limit: limit, Offset: offset})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

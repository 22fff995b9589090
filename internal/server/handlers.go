package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/model"
)

// rangeRequest is the body of the series endpoints.
type rangeRequest struct {
	MFName   string `json:"MFName"`
	FromDate string `json:"FromDate" binding:"required"`
	ToDate   string `json:"ToDate" binding:"required"`
}

type fundRangeRequest struct {
	MFName   string `json:"MFName" binding:"required"`
	FromDate string `json:"FromDate" binding:"required"`
	ToDate   string `json:"ToDate" binding:"required"`
}

type aumRequest struct {
	MFName      string `json:"MFName" binding:"required"`
	YearQuarter string `json:"Year_Quarter" binding:"required"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type fundEntry struct {
	Company string `json:"company"`
	Fund    string `json:"Fund"`
}

type navRow struct {
	Date  model.Date `json:"date"`
	Value *float64   `json:"nav"`
}

type closeRow struct {
	Date  model.Date `json:"date"`
	Value *float64   `json:"close"`
}

func (s *Server) handleListFunds(c *gin.Context) {
	funds := s.svc.ListFunds()
	out := make([]fundEntry, len(funds))
	for i, f := range funds {
		out[i] = fundEntry{Company: f.Company, Fund: f.Fund}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetNav(c *gin.Context) {
	var req fundRangeRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.GetSeries(c.Request.Context(), req.MFName, req.FromDate, req.ToDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	rows := make([]navRow, len(res.Series))
	for i, p := range res.Series {
		rows[i] = navRow{Date: p.Date, Value: floatPtr(p)}
	}
	c.JSON(http.StatusOK, gin.H{"nav_data": rows, "stats": res.Stats})
}

func (s *Server) handleGetIndex(c *gin.Context) {
	var req rangeRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.GetIndex(c.Request.Context(), req.FromDate, req.ToDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	rows := make([]closeRow, len(res.Series))
	for i, p := range res.Series {
		rows[i] = closeRow{Date: p.Date, Value: floatPtr(p)}
	}
	c.JSON(http.StatusOK, gin.H{"nifty_data": rows, "stats": res.Stats})
}

func (s *Server) handleCompare(c *gin.Context) {
	var req fundRangeRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.Compare(c.Request.Context(), req.MFName, req.FromDate, req.ToDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res.Points, "correlation": res.Correlation})
}

func (s *Server) handlePredict(c *gin.Context) {
	var req fundRangeRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.Predict(c.Request.Context(), req.MFName, req.FromDate, req.ToDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetAum(c *gin.Context) {
	var req aumRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.GetAum(c.Request.Context(), req.MFName, req.YearQuarter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleHealth(c *gin.Context) {
	components := make(map[string]string, len(s.health))
	for name, state := range s.health {
		components[name] = state()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "components": components})
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: c.GetString("request_id")})
		return false
	}
	return true
}

// fail writes err with the status of its class. Unclassified errors are
// logged and hidden behind a generic message.
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	var fe *apperr.ForecastError
	if status == http.StatusInternalServerError && !errors.As(err, &fe) {
		s.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("request failed")
		msg = "internal error"
	}
	c.JSON(status, errorResponse{Error: msg, RequestID: c.GetString("request_id")})
}

func floatPtr(p model.Point) *float64 {
	v, ok := p.Float()
	if !ok {
		return nil
	}
	return &v
}

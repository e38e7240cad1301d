package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "symbol": s.symbol})
}

func (s *Server) handleStatus(c *gin.Context) {
	status := s.engine.Status()
	status["ws_clients"] = s.hub.ClientCount()
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"zones": s.engine.Zones()})
}

func (s *Server) handleTrade(c *gin.Context) {
	t := s.engine.OpenTrade()
	if t == nil {
		c.JSON(http.StatusOK, gin.H{"open": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true, "trade": t})
}

func (s *Server) handleSignals(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	limit := queryInt(c, "limit", 50)
	signals, err := s.repo.RecentSignals(c.Request.Context(), s.symbol, limit)
	if err != nil {
		s.log.Error("signal query failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

func (s *Server) handleTrades(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	limit := queryInt(c, "limit", 50)
	trades, err := s.repo.RecentTrades(c.Request.Context(), s.symbol, limit)
	if err != nil {
		s.log.Error("trade query failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleDailySummary(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	summary, err := s.repo.DailySummaryFor(c.Request.Context(), c.Param("day"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary for day"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleFlatten(c *gin.Context) {
	if err := s.engine.FlattenNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flattened": true})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

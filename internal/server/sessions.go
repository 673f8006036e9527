package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/waypost/pkg/api"
)

func (s *Server) listSessions(c *gin.Context) {
	sessions := s.mon.Sessions()
	c.JSON(http.StatusOK, api.SessionsListResponse{
		Sessions: sessions,
		Count:    len(sessions),
	})
}

func (s *Server) getSession(c *gin.Context) {
	sessionID := api.SessionID(c.Param("sessionID"))
	flows := s.mon.SessionFlows(sessionID)
	if len(flows) == 0 {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  fmt.Sprintf("Session not found: %s", sessionID),
			Status: http.StatusNotFound,
		})
		return
	}

	summary := api.SessionSummary{
		SessionID: sessionID,
		Flows:     len(flows),
	}
	for _, inst := range flows {
		if inst.Complete {
			continue
		}
		summary.Incomplete++
		if def, ok := s.reg.Get(inst.FlowID); ok &&
			def.BlockingOnSessionEnd {
			summary.Blocking++
		}
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) listSessionFlows(c *gin.Context) {
	sessionID := api.SessionID(c.Param("sessionID"))
	flows := s.mon.SessionFlows(sessionID)

	if c.Query("incomplete") == "true" {
		pending := make([]*api.FlowInstance, 0, len(flows))
		for _, inst := range flows {
			if !inst.Complete {
				pending = append(pending, inst)
			}
		}
		flows = pending
	}

	c.JSON(http.StatusOK, api.InstancesResponse{
		Instances: flows,
		Count:     len(flows),
	})
}

func (s *Server) getSessionFlow(c *gin.Context) {
	sessionID := api.SessionID(c.Param("sessionID"))
	instanceID := api.InstanceID(c.Param("instanceID"))

	inst, ok := s.mon.Flow(sessionID, instanceID)
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  fmt.Sprintf("Flow instance not found: %s", instanceID),
			Status: http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, inst)
}

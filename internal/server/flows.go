package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/waypost/pkg/api"
)

func (s *Server) listFlows(c *gin.Context) {
	defs := s.reg.All()
	flows := make([]*api.FlowDigest, 0, len(defs))
	for _, def := range defs {
		flows = append(flows, &api.FlowDigest{
			ID:             def.ID,
			Name:           def.Name,
			CompletionStep: def.CompletionStep,
			Steps:          len(def.Steps),
			Blocking:       def.BlockingOnSessionEnd,
		})
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) getFlow(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))
	def, ok := s.reg.Get(flowID)
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  fmt.Sprintf("Flow not found: %s", flowID),
			Status: http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, def)
}

package handlers

import (
	"log"
	"net/http"
	"time"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
	"fleet-svc/app/services"
	"fleet-svc/app/utils"

	"github.com/gin-gonic/gin"
)

// AgentHandler is the token-authenticated surface remote agents call.
// The wire contract is action-dispatched: one endpoint, an action query
// parameter, and a uniform response envelope.
type AgentHandler struct {
	registry *services.RegistryService
	commands *services.CommandService
	ingest   *services.IngestService
	assets   *services.AssetService
	liveness *services.LivenessService
	tokens   *services.TokenService
	storage  clients.StorageAdapter
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(
	registry *services.RegistryService,
	commands *services.CommandService,
	ingest *services.IngestService,
	assets *services.AssetService,
	liveness *services.LivenessService,
	tokens *services.TokenService,
	storage clients.StorageAdapter,
) *AgentHandler {
	return &AgentHandler{
		registry: registry,
		commands: commands,
		ingest:   ingest,
		assets:   assets,
		liveness: liveness,
		tokens:   tokens,
		storage:  storage,
	}
}

// Dispatch routes one request by its action parameter
func (h *AgentHandler) Dispatch(c *gin.Context) {
	action := c.Query("action")
	if action == "" {
		action = c.PostForm("action")
	}

	switch action {
	case "register":
		h.register(c)
	case "heartbeat":
		h.heartbeat(c)
	case "report":
		h.report(c)
	case "commands":
		h.pendingCommands(c)
	case "command_result":
		h.commandResult(c)
	case "list":
		h.list(c)
	case "info":
		h.info(c)
	default:
		respondError(c, http.StatusBadRequest, "unknown action: "+action)
	}
}

// register upserts the agent and returns pending commands for immediate
// pickup, plus a per-agent credential for subsequent calls.
func (h *AgentHandler) register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.boundAgentMatches(c, req.AgentID) {
		return
	}

	ctx := c.Request.Context()
	agent := &domains.Agent{
		AgentID:   req.AgentID,
		Hostname:  req.Hostname,
		IPAddress: req.IPAddress,
		OSInfo:    req.OSInfo,
		Version:   req.Version,
		Config:    req.Config,
	}
	if agent.IPAddress == "" {
		agent.IPAddress = c.ClientIP()
	}

	if err := h.registry.UpsertAgent(ctx, agent); err != nil {
		respondServiceError(c, err)
		return
	}

	for _, name := range req.Tags {
		tagID, err := h.assets.EnsureTag(ctx, name)
		if err != nil {
			log.Printf("failed to ensure tag %q for agent %s: %v", name, req.AgentID, err)
			continue
		}
		if err := h.assets.AssignTag(ctx, req.AgentID, tagID); err != nil {
			log.Printf("failed to assign tag %q to agent %s: %v", name, req.AgentID, err)
		}
	}

	token, err := h.tokens.IssueAgentToken(req.AgentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	pending, err := h.commands.PendingFor(ctx, req.AgentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, dto.RegisterData{
		Message:         "Agent registered successfully",
		AgentID:         req.AgentID,
		Token:           token,
		PendingCommands: pending,
	})
}

// heartbeat refreshes liveness and returns pending commands. A pending
// command stays in every heartbeat response until its result arrives.
func (h *AgentHandler) heartbeat(c *gin.Context) {
	var req dto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.boundAgentMatches(c, req.AgentID) {
		return
	}

	ctx := c.Request.Context()
	if err := h.registry.Heartbeat(ctx, req.AgentID, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}

	pending, err := h.commands.PendingFor(ctx, req.AgentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, dto.HeartbeatData{
		Commands:   pending,
		ServerTime: time.Now().Format(time.RFC3339),
	})
}

// report ingests one telemetry batch
func (h *AgentHandler) report(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.boundAgentMatches(c, req.AgentID) {
		return
	}

	results, err := h.ingest.Report(c.Request.Context(), req.AgentID, req.DataType, req.Data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dto.ReportData{Results: results})
}

// pendingCommands is the read-only poll; it does not touch liveness
func (h *AgentHandler) pendingCommands(c *gin.Context) {
	agentID := c.Query("agent_id")
	if agentID == "" {
		var req dto.HeartbeatRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			agentID = req.AgentID
		}
	}
	if agentID == "" {
		respondError(c, http.StatusBadRequest, "agent_id is required")
		return
	}
	if !h.boundAgentMatches(c, agentID) {
		return
	}

	pending, err := h.commands.PendingFor(c.Request.Context(), agentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dto.CommandsData{Commands: pending})
}

// commandResult moves one command to a terminal state
func (h *AgentHandler) commandResult(c *gin.Context) {
	var req dto.CommandResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.commands.ReportResult(c.Request.Context(), req.CommandID, req.Status, req.Result); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dto.CommandResultData{Message: "Command result updated"})
}

// list returns the current fleet; the liveness sweep runs first so stale
// online labels are never served
func (h *AgentHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.liveness.Sweep(ctx); err != nil {
		respondServiceError(c, err)
		return
	}

	agents, err := h.registry.List(ctx, domains.AgentListFilter{Status: c.Query("status")})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if agents == nil {
		agents = []domains.Agent{}
	}
	respondData(c, http.StatusOK, dto.AgentListData{Agents: agents})
}

// info returns one agent with its recent telemetry
func (h *AgentHandler) info(c *gin.Context) {
	agentID := c.Query("agent_id")
	if agentID == "" {
		respondError(c, http.StatusBadRequest, "agent_id is required")
		return
	}

	ctx := c.Request.Context()
	agent, err := h.registry.Get(ctx, agentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	recentData, err := h.storage.GetAgentData(ctx, agentID, nil, 20)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, dto.AgentInfoData{Agent: agent, RecentData: recentData})
}

// boundAgentMatches rejects a per-agent credential used on behalf of a
// different agent_id. Shared-token requests carry no binding.
func (h *AgentHandler) boundAgentMatches(c *gin.Context, agentID string) bool {
	bound := c.GetString(ctxAgentID)
	if bound != "" && bound != agentID {
		respondError(c, http.StatusForbidden, "token is not valid for this agent")
		return false
	}
	return true
}

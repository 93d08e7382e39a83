package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
	"fleet-svc/app/services"
	"fleet-svc/app/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler is the operator-facing control surface. The middleware
// guarantees an authenticated session; mutating actions re-check the
// role before proceeding.
type AdminHandler struct {
	registry *services.RegistryService
	commands *services.CommandService
	assets   *services.AssetService
	audit    *services.AuditService
	liveness *services.LivenessService
	storage  clients.StorageAdapter
	scans    clients.ScanStore
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	registry *services.RegistryService,
	commands *services.CommandService,
	assets *services.AssetService,
	audit *services.AuditService,
	liveness *services.LivenessService,
	storage clients.StorageAdapter,
	scans clients.ScanStore,
) *AdminHandler {
	return &AdminHandler{
		registry: registry,
		commands: commands,
		assets:   assets,
		audit:    audit,
		liveness: liveness,
		storage:  storage,
		scans:    scans,
	}
}

// Dispatch routes one request by its action parameter
func (h *AdminHandler) Dispatch(c *gin.Context) {
	action := c.Query("action")
	if action == "" {
		action = c.PostForm("action")
	}

	switch action {
	case "list":
		h.list(c)
	case "info":
		h.info(c)
	case "send_command":
		h.sendCommand(c)
	case "data":
		h.data(c)
	case "scans":
		h.scanHistory(c)
	case "delete":
		h.deleteAgent(c)
	case "cleanup_agents":
		h.cleanupAgents(c)
	case "delete_all_agents":
		h.deleteAllAgents(c)
	case "groups":
		h.listGroups(c)
	case "create_group":
		h.createGroup(c)
	case "delete_group":
		h.deleteGroup(c)
	case "tags":
		h.listTags(c)
	case "create_tag":
		h.createTag(c)
	case "delete_tag":
		h.deleteTag(c)
	case "assign_group":
		h.assignGroup(c)
	case "unassign_group":
		h.unassignGroup(c)
	case "assign_tag":
		h.assignTag(c)
	case "unassign_tag":
		h.unassignTag(c)
	default:
		respondError(c, http.StatusBadRequest, "unknown action: "+action)
	}
}

// list returns the fleet decorated with 24h scan stats per agent
func (h *AdminHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.liveness.Sweep(ctx); err != nil {
		respondServiceError(c, err)
		return
	}

	filter := domains.AgentListFilter{Status: c.Query("status")}
	if groupStr := c.Query("group_id"); groupStr != "" {
		if id, err := strconv.ParseInt(groupStr, 10, 64); err == nil {
			filter.GroupID = id
		}
	}
	if tagStr := c.Query("tag_id"); tagStr != "" {
		if id, err := strconv.ParseInt(tagStr, 10, 64); err == nil {
			filter.TagIDs = append(filter.TagIDs, id)
		}
	}

	agents, err := h.registry.List(ctx, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	views := make([]dto.AgentView, 0, len(agents))
	for _, agent := range agents {
		stats, err := h.scans.AgentScanStats(ctx, agent.AgentID, 24*time.Hour)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		views = append(views, dto.AgentView{
			Agent:          agent,
			RecentScans:    stats.RecentScans,
			RecentCritical: stats.RecentCritical,
			RecentHigh:     stats.RecentHigh,
		})
	}
	respondData(c, http.StatusOK, dto.AgentListData{Agents: views})
}

// info returns one agent with recent telemetry, scans, and commands
func (h *AdminHandler) info(c *gin.Context) {
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

	recentData, err := h.storage.GetAgentData(ctx, agentID, nil, 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	recentScans, err := h.scans.ScansByAgent(ctx, &agentID, 20)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	recentCommands, err := h.commands.Recent(ctx, agentID, 20)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, dto.AgentInfoData{
		Agent:          agent,
		RecentData:     recentData,
		RecentScans:    recentScans,
		RecentCommands: recentCommands,
	})
}

// sendCommand enqueues a command for an agent; admin-only and audited
func (h *AdminHandler) sendCommand(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req dto.SendCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	commandID, err := h.commands.Enqueue(ctx, req.AgentID, req.CommandType, req.CommandData)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(ctx, h.actor(c), "SEND_AGENT_COMMAND", "agent", &req.AgentID,
		fmt.Sprintf("type: %s, command_id: %d", req.CommandType, commandID))
	respondData(c, http.StatusOK, dto.SendCommandData{CommandID: commandID})
}

// data returns an agent's telemetry records
func (h *AdminHandler) data(c *gin.Context) {
	agentID := c.Query("agent_id")
	if agentID == "" {
		respondError(c, http.StatusBadRequest, "agent_id is required")
		return
	}

	var dataType *string
	if dt := c.Query("data_type"); dt != "" {
		dataType = &dt
	}
	limit := clampLimit(c.Query("limit"), 100, 500)

	records, err := h.storage.GetAgentData(c.Request.Context(), agentID, dataType, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if records == nil {
		records = []domains.AgentData{}
	}
	respondData(c, http.StatusOK, gin.H{"data": records})
}

// scanHistory returns scan records, for one agent or fleet-wide
func (h *AdminHandler) scanHistory(c *gin.Context) {
	var agentID *string
	if id := c.Query("agent_id"); id != "" {
		agentID = &id
	}
	limit := clampLimit(c.Query("limit"), 50, 200)

	scans, err := h.scans.ScansByAgent(c.Request.Context(), agentID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if scans == nil {
		scans = []domains.ScanRecord{}
	}
	respondData(c, http.StatusOK, gin.H{"scans": scans})
}

// deleteAgent removes one agent and everything referencing it
func (h *AdminHandler) deleteAgent(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	agentID := c.Query("agent_id")
	if agentID == "" {
		var req struct {
			AgentID string `json:"agent_id"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			agentID = req.AgentID
		}
	}
	if agentID == "" {
		respondError(c, http.StatusBadRequest, "agent_id is required")
		return
	}

	ctx := c.Request.Context()
	if err := h.registry.Delete(ctx, agentID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(ctx, h.actor(c), "DELETE_AGENT", "agent", &agentID, "agent and dependent records removed")
	respondData(c, http.StatusOK, gin.H{"message": "Agent deleted"})
}

// cleanupAgents bulk-deletes agents offline beyond the retention window
func (h *AdminHandler) cleanupAgents(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	days := 30
	if d, err := strconv.Atoi(c.Query("days")); err == nil && d > 0 {
		days = d
	}

	ctx := c.Request.Context()
	deleted, err := h.storage.DeleteAgentsOffline(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(ctx, h.actor(c), "CLEANUP_AGENTS", "agent", nil,
		fmt.Sprintf("deleted %d agents offline longer than %d days", deleted, days))
	respondData(c, http.StatusOK, dto.BulkDeleteData{Deleted: deleted})
}

// deleteAllAgents empties the fleet registry
func (h *AdminHandler) deleteAllAgents(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	ctx := c.Request.Context()
	deleted, err := h.storage.DeleteAllAgents(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(ctx, h.actor(c), "DELETE_ALL_AGENTS", "agent", nil,
		fmt.Sprintf("deleted %d agents", deleted))
	respondData(c, http.StatusOK, dto.BulkDeleteData{Deleted: deleted})
}

func (h *AdminHandler) listGroups(c *gin.Context) {
	groups, err := h.assets.ListGroups(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if groups == nil {
		groups = []domains.AssetGroup{}
	}
	respondData(c, http.StatusOK, gin.H{"groups": groups})
}

func (h *AdminHandler) createGroup(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	id, err := h.assets.CreateGroup(ctx, domains.AssetGroup{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(ctx, h.actor(c), "CREATE_GROUP", "group", &req.Name, "")
	respondData(c, http.StatusOK, gin.H{"group_id": id})
}

func (h *AdminHandler) deleteGroup(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := strconv.ParseInt(c.Query("group_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "group_id is required")
		return
	}

	ctx := c.Request.Context()
	if err := h.assets.DeleteGroup(ctx, id); err != nil {
		respondServiceError(c, err)
		return
	}

	target := strconv.FormatInt(id, 10)
	h.audit.Record(ctx, h.actor(c), "DELETE_GROUP", "group", &target, "")
	respondData(c, http.StatusOK, gin.H{"message": "Group deleted"})
}

func (h *AdminHandler) listTags(c *gin.Context) {
	tags, err := h.assets.ListTags(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if tags == nil {
		tags = []domains.AssetTag{}
	}
	respondData(c, http.StatusOK, gin.H{"tags": tags})
}

func (h *AdminHandler) createTag(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req dto.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	id, err := h.assets.CreateTag(ctx, domains.AssetTag{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Color:       req.Color,
		Category:    req.Category,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.audit.Record(ctx, h.actor(c), "CREATE_TAG", "tag", &req.Name, "")
	respondData(c, http.StatusOK, gin.H{"tag_id": id})
}

func (h *AdminHandler) deleteTag(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := strconv.ParseInt(c.Query("tag_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "tag_id is required")
		return
	}

	ctx := c.Request.Context()
	if err := h.assets.DeleteTag(ctx, id); err != nil {
		respondServiceError(c, err)
		return
	}

	target := strconv.FormatInt(id, 10)
	h.audit.Record(ctx, h.actor(c), "DELETE_TAG", "tag", &target, "")
	respondData(c, http.StatusOK, gin.H{"message": "Tag deleted"})
}

// Assignment actions are operator-level; creating or deleting the groups
// and tags themselves stays admin-only.

func (h *AdminHandler) assignGroup(c *gin.Context) {
	if !h.requireOperator(c) {
		return
	}

	var req dto.GroupAssignRequest
	if !bindAssign(c, &req) {
		return
	}
	if err := h.assets.AssignGroup(c.Request.Context(), req.AgentID, req.GroupID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Group assigned"})
}

func (h *AdminHandler) unassignGroup(c *gin.Context) {
	if !h.requireOperator(c) {
		return
	}

	var req dto.GroupAssignRequest
	if !bindAssign(c, &req) {
		return
	}
	if err := h.assets.UnassignGroup(c.Request.Context(), req.AgentID, req.GroupID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Group unassigned"})
}

func (h *AdminHandler) assignTag(c *gin.Context) {
	if !h.requireOperator(c) {
		return
	}

	var req dto.TagAssignRequest
	if !bindAssign(c, &req) {
		return
	}
	if err := h.assets.AssignTag(c.Request.Context(), req.AgentID, req.TagID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Tag assigned"})
}

func (h *AdminHandler) unassignTag(c *gin.Context) {
	if !h.requireOperator(c) {
		return
	}

	var req dto.TagAssignRequest
	if !bindAssign(c, &req) {
		return
	}
	if err := h.assets.UnassignTag(c.Request.Context(), req.AgentID, req.TagID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Tag unassigned"})
}

func bindAssign(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *AdminHandler) requireOperator(c *gin.Context) bool {
	if !domains.RoleAtLeast(c.GetString(ctxAdminRole), domains.RoleOperator) {
		respondError(c, http.StatusForbidden, "operator privileges required")
		return false
	}
	return true
}

func (h *AdminHandler) requireAdmin(c *gin.Context) bool {
	if !domains.RoleAtLeast(c.GetString(ctxAdminRole), domains.RoleAdmin) {
		respondError(c, http.StatusForbidden, "admin privileges required")
		return false
	}
	return true
}

func (h *AdminHandler) actor(c *gin.Context) string {
	return c.GetString(ctxAdminUser)
}

func clampLimit(raw string, def, max int) int {
	limit := def
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		limit = v
	}
	if limit > max {
		limit = max
	}
	return limit
}

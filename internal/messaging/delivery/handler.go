package delivery

import (
	"net/http"
	"strconv"

	"pushconsole-backend/internal/messaging/domain"
	"pushconsole-backend/internal/messaging/repository"

	"github.com/gin-gonic/gin"
)

// MessagingHandler handles the admin CRUD for templates, provider configs,
// recipient groups and device tokens. These records are plain data the task
// orchestrator reads at execution time.
type MessagingHandler struct {
	templateRepo repository.TemplateRepository
	configRepo   repository.ProviderConfigRepository
	groupRepo    repository.RecipientGroupRepository
	tokenRepo    repository.DeviceTokenRepository
}

// NewMessagingHandler creates a new MessagingHandler
func NewMessagingHandler(
	templateRepo repository.TemplateRepository,
	configRepo repository.ProviderConfigRepository,
	groupRepo repository.RecipientGroupRepository,
	tokenRepo repository.DeviceTokenRepository,
) *MessagingHandler {
	return &MessagingHandler{
		templateRepo: templateRepo,
		configRepo:   configRepo,
		groupRepo:    groupRepo,
		tokenRepo:    tokenRepo,
	}
}

// CreateTemplateRequest represents the request body for creating a template
type CreateTemplateRequest struct {
	Name        string `json:"name" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Body        string `json:"body" binding:"required"`
	ImageURL    string `json:"image_url"`
	ClickAction string `json:"click_action"`
	DataPayload string `json:"data_payload"`
}

// CreateTemplate creates a notification template
// POST /api/templates
func (h *MessagingHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	template := &domain.Template{
		Name:        req.Name,
		Title:       req.Title,
		Body:        req.Body,
		ImageURL:    req.ImageURL,
		ClickAction: req.ClickAction,
		DataPayload: req.DataPayload,
	}

	if err := h.templateRepo.Create(template); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetTemplates lists templates
// GET /api/templates?limit=50&offset=0
func (h *MessagingHandler) GetTemplates(c *gin.Context) {
	limit, offset := pagination(c)

	templates, total, err := h.templateRepo.FindAll(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"total":     total,
	})
}

// CreateConfigRequest represents the request body for creating a provider config
type CreateConfigRequest struct {
	Name               string `json:"name" binding:"required"`
	LegacyKey          string `json:"legacy_key"`
	ServiceAccountJSON string `json:"service_account_json"`
	ProjectID          string `json:"project_id"`
}

// CreateConfig creates a provider config
// POST /api/configs
func (h *MessagingHandler) CreateConfig(c *gin.Context) {
	var req CreateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	config := &domain.ProviderConfig{
		Name:               req.Name,
		LegacyKey:          req.LegacyKey,
		ServiceAccountJSON: req.ServiceAccountJSON,
		ProjectID:          req.ProjectID,
	}

	// Reject configs that could never dispatch instead of failing at execute time
	if _, err := config.DispatchCredential(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	if err := h.configRepo.Create(config); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, config)
}

// GetConfigs lists provider configs
// GET /api/configs?limit=50&offset=0
func (h *MessagingHandler) GetConfigs(c *gin.Context) {
	limit, offset := pagination(c)

	configs, total, err := h.configRepo.FindAll(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configs": configs,
		"total":   total,
	})
}

// CreateGroupRequest represents the request body for creating a recipient group
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateGroup creates a recipient group
// POST /api/groups
func (h *MessagingHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	group := &domain.RecipientGroup{Name: req.Name}
	if err := h.groupRepo.Create(group); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// GetGroups lists recipient groups
// GET /api/groups?limit=50&offset=0
func (h *MessagingHandler) GetGroups(c *gin.Context) {
	limit, offset := pagination(c)

	groups, total, err := h.groupRepo.FindAll(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"total":  total,
	})
}

// RegisterTokenRequest represents the request body for registering a device token
type RegisterTokenRequest struct {
	Token      string   `json:"token" binding:"required"`
	DeviceInfo string   `json:"device_info"`
	GroupIDs   []string `json:"group_ids"`
}

// RegisterToken registers or refreshes a device token
// POST /api/tokens
func (h *MessagingHandler) RegisterToken(c *gin.Context) {
	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.tokenRepo.SaveToken(req.Token, req.DeviceInfo, req.GroupIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token registered"})
}

// RevokeToken marks a device token as revoked
// DELETE /api/tokens/:token
func (h *MessagingHandler) RevokeToken(c *gin.Context) {
	token := c.Param("token")

	if err := h.tokenRepo.RevokeToken(token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

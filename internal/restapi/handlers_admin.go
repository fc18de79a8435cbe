package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
	"rlmengine/internal/webhook"
)

// AdminStore is the persistence surface the Integrator Admin REST handlers
// need: CRUD over workspaces, their provisioned clients, and those
// clients' API keys. Kept as an interface so this package never depends
// on the concrete Mongo collection wiring.
type AdminStore interface {
	CreateWorkspace(ctx context.Context, w domain.Workspace) (domain.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	UpdateWorkspace(ctx context.Context, id string, webhookURL string) (domain.Workspace, error)
	DeleteWorkspace(ctx context.Context, id string) error

	CreateClient(ctx context.Context, c domain.IntegratorClient) (domain.IntegratorClient, error)
	GetClient(ctx context.Context, id string) (domain.IntegratorClient, error)
	ListClients(ctx context.Context, workspaceID string) ([]domain.IntegratorClient, error)
	UpdateClient(ctx context.Context, id string, bundle domain.BundleTier) (domain.IntegratorClient, error)
	DeleteClient(ctx context.Context, id string) error

	CreateClientAPIKey(ctx context.Context, clientID string) (domain.ClientAPIKey, string, error)
	ListClientAPIKeys(ctx context.Context, clientID string) ([]domain.ClientAPIKey, error)
	RevokeClientAPIKey(ctx context.Context, id string) error

	// WorkspaceTarget resolves a workspace's webhook delivery target,
	// empty URL meaning webhooks are unconfigured for it.
	WorkspaceTarget(ctx context.Context, workspaceID string) (webhook.Target, error)
}

// AdminHandler exposes the Integrator Admin REST surface mounted at
// /v1/integrator and fires webhook events when a client is created,
// updated or deleted and when an API key is created. Revoking an API key
// fires no event.
type AdminHandler struct {
	store     AdminStore
	deliverer *webhook.Deliverer
	logger    *zap.Logger
}

// NewAdminHandler builds an AdminHandler. A nil logger is replaced with
// a no-op logger.
func NewAdminHandler(store AdminStore, deliverer *webhook.Deliverer, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{store: store, deliverer: deliverer, logger: logger}
}

// RegisterRoutes mounts the workspace/client/key CRUD surface under group.
func (h *AdminHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/workspaces", h.createWorkspace)
	group.GET("/workspaces", h.listWorkspaces)
	group.GET("/workspaces/:workspace_id", h.getWorkspace)
	group.PUT("/workspaces/:workspace_id", h.updateWorkspace)
	group.DELETE("/workspaces/:workspace_id", h.deleteWorkspace)

	group.POST("/workspaces/:workspace_id/clients", h.createClient)
	group.GET("/workspaces/:workspace_id/clients", h.listClients)
	group.GET("/clients/:client_id", h.getClient)
	group.PUT("/clients/:client_id", h.updateClient)
	group.DELETE("/clients/:client_id", h.deleteClient)

	group.POST("/clients/:client_id/keys", h.createClientAPIKey)
	group.GET("/clients/:client_id/keys", h.listClientAPIKeys)
	group.DELETE("/keys/:key_id", h.revokeClientAPIKey)
}

type createWorkspaceBody struct {
	Name       string `json:"name" binding:"required"`
	OwnerID    string `json:"owner_id" binding:"required"`
}

func (h *AdminHandler) createWorkspace(c *gin.Context) {
	var body createWorkspaceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAppError(c, apperr.New(apperr.KindValidation, "name and owner_id are required"))
		return
	}
	ws, err := h.store.CreateWorkspace(c.Request.Context(), domain.Workspace{
		Name:      body.Name,
		OwnerID:   body.OwnerID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

func (h *AdminHandler) listWorkspaces(c *gin.Context) {
	list, err := h.store.ListWorkspaces(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": list})
}

func (h *AdminHandler) getWorkspace(c *gin.Context) {
	ws, err := h.store.GetWorkspace(c.Request.Context(), c.Param("workspace_id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

type updateWorkspaceBody struct {
	WebhookURL string `json:"webhook_url"`
}

func (h *AdminHandler) updateWorkspace(c *gin.Context) {
	var body updateWorkspaceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAppError(c, apperr.New(apperr.KindValidation, "request body must be valid JSON"))
		return
	}
	ws, err := h.store.UpdateWorkspace(c.Request.Context(), c.Param("workspace_id"), body.WebhookURL)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *AdminHandler) deleteWorkspace(c *gin.Context) {
	if err := h.store.DeleteWorkspace(c.Request.Context(), c.Param("workspace_id")); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type createClientBody struct {
	Name       string            `json:"name" binding:"required"`
	Bundle     domain.BundleTier `json:"bundle" binding:"required"`
	WebhookURL string            `json:"webhook_url"`
}

func (h *AdminHandler) createClient(c *gin.Context) {
	var body createClientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAppError(c, apperr.New(apperr.KindValidation, "name and bundle are required"))
		return
	}
	workspaceID := c.Param("workspace_id")
	client, err := h.store.CreateClient(c.Request.Context(), domain.IntegratorClient{
		WorkspaceID: workspaceID,
		Name:        body.Name,
		Bundle:      body.Bundle,
		WebhookURL:  body.WebhookURL,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	h.fireWorkspaceEvent(c, workspaceID, webhook.EventClientCreated, gin.H{"client_id": client.ID, "name": client.Name})
	c.JSON(http.StatusCreated, client)
}

func (h *AdminHandler) listClients(c *gin.Context) {
	list, err := h.store.ListClients(c.Request.Context(), c.Param("workspace_id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": list})
}

func (h *AdminHandler) getClient(c *gin.Context) {
	client, err := h.store.GetClient(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

type updateClientBody struct {
	Bundle domain.BundleTier `json:"bundle" binding:"required"`
}

func (h *AdminHandler) updateClient(c *gin.Context) {
	var body updateClientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAppError(c, apperr.New(apperr.KindValidation, "bundle is required"))
		return
	}
	clientID := c.Param("client_id")
	client, err := h.store.UpdateClient(c.Request.Context(), clientID, body.Bundle)
	if err != nil {
		writeAppError(c, err)
		return
	}
	h.fireWorkspaceEvent(c, client.WorkspaceID, webhook.EventClientUpdated, gin.H{"client_id": client.ID, "bundle": client.Bundle})
	c.JSON(http.StatusOK, client)
}

func (h *AdminHandler) deleteClient(c *gin.Context) {
	clientID := c.Param("client_id")
	client, err := h.store.GetClient(c.Request.Context(), clientID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if err := h.store.DeleteClient(c.Request.Context(), clientID); err != nil {
		writeAppError(c, err)
		return
	}
	h.fireWorkspaceEvent(c, client.WorkspaceID, webhook.EventClientDeleted, gin.H{"client_id": clientID})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminHandler) createClientAPIKey(c *gin.Context) {
	clientID := c.Param("client_id")
	key, raw, err := h.store.CreateClientAPIKey(c.Request.Context(), clientID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	client, err := h.store.GetClient(c.Request.Context(), clientID)
	if err == nil {
		h.fireWorkspaceEvent(c, client.WorkspaceID, webhook.EventAPIKeyCreated, gin.H{"client_id": clientID, "key_id": key.ID, "prefix": key.Prefix})
	}
	// raw key material is returned exactly once, at creation time.
	c.JSON(http.StatusCreated, gin.H{"key": key, "api_key": raw})
}

func (h *AdminHandler) listClientAPIKeys(c *gin.Context) {
	list, err := h.store.ListClientAPIKeys(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": list})
}

func (h *AdminHandler) revokeClientAPIKey(c *gin.Context) {
	keyID := c.Param("key_id")
	if err := h.store.RevokeClientAPIKey(c.Request.Context(), keyID); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

// fireWorkspaceEvent looks up the workspace's webhook target and
// delivers eventType asynchronously. Lookup or delivery failures are
// logged, never surfaced to the REST caller whose CRUD request
// triggered the event.
func (h *AdminHandler) fireWorkspaceEvent(c *gin.Context, workspaceID, eventType string, data gin.H) {
	if h.deliverer == nil {
		return
	}
	target, err := h.store.WorkspaceTarget(c.Request.Context(), workspaceID)
	if err != nil {
		h.logger.Warn("webhook target lookup failed",
			zap.String("workspace_id", workspaceID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return
	}
	if target.URL == "" {
		return
	}
	h.deliverer.DeliverAsync(target, webhook.Event{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Type:        eventType,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	})
}

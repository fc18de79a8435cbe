package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerWellKnown mounts the two discovery documents: RFC 8414
// OAuth authorization server metadata and the AI plugin manifest. Both have
// a fixed shape; their URLs are built from the request's scheme and host.
func registerWellKnown(g *gin.Engine) {
	g.GET("/.well-known/oauth-authorization-server", handleOAuthMetadata)
	g.GET("/.well-known/ai-plugin.json", handleAIPluginManifest)
}

func handleOAuthMetadata(c *gin.Context) {
	base := baseURL(c)
	c.JSON(http.StatusOK, gin.H{
		"issuer":                                base,
		"authorization_endpoint":                base + "/oauth/authorize",
		"token_endpoint":                         base + "/oauth/token",
		"response_types_supported":               []string{"code"},
		"grant_types_supported":                  []string{"authorization_code", "refresh_token"},
		"token_endpoint_auth_methods_supported":  []string{"client_secret_post"},
		"code_challenge_methods_supported":       []string{"S256"},
	})
}

func handleAIPluginManifest(c *gin.Context) {
	base := baseURL(c)
	c.JSON(http.StatusOK, gin.H{
		"schema_version": "v1",
		"name_for_human": "RLM Context Engine",
		"name_for_model": "rlm_context_engine",
		"description_for_human": "Retrieves and assembles project documentation context for coding agents.",
		"description_for_model": "Use this plugin to search, retrieve, and assemble project documentation context within a token budget.",
		"auth": gin.H{"type": "oauth"},
		"api": gin.H{
			"type": "mcp",
			"url":  base + "/mcp",
		},
	})
}

func baseURL(c *gin.Context) string {
	scheme := "https"
	if c.Request.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + c.Request.Host
}

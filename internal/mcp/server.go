package mcp

import (
	"database/sql"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/config"
	"github.com/hpungsan/handoff/internal/host"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"share", "history"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"share_deeplink": {
		def:     deeplinkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeepLink },
	},
	"share_detect_platform": {
		def:     detectPlatformToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDetectPlatform },
	},
	"share_detect_os": {
		def:     detectOSToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDetectOS },
	},
	"share_social_url": {
		def:     socialURLToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSocialURL },
	},
	"share_social_platforms": {
		def:     socialPlatformsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSocialPlatforms },
	},
	"share_open_link": {
		def:     openLinkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOpenLink },
	},
	"share_send": {
		def:     sendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSend },
	},
	"share_copy": {
		def:     copyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCopy },
	},
	"history_list": {
		def:     historyListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryList },
	},
	"history_fetch": {
		def:     historyFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryFetch },
	},
	"history_purge": {
		def:     historyPurgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryPurge },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "share_send" → "share").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Handoff tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration. A nil db disables the history tools.
func NewServer(db *sql.DB, cfg *config.Config, h host.Host, logger *zap.Logger, version string) (*server.MCPServer, error) {
	handlers, err := NewHandlers(db, cfg, h, logger)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		"handoff",
		version,
		server.WithToolCapabilities(true),
	)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	if db == nil {
		for _, tool := range ExpandTypesToTools([]string{"history"}) {
			disabled[tool] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(handlers))
	}

	return s, nil
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, h host.Host, logger *zap.Logger, version string) error {
	s, err := NewServer(db, cfg, h, logger, version)
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}

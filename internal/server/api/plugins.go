package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/plugin"
)

// PluginHandler lists the discovered action plugins.
type PluginHandler struct {
	manager *plugin.Manager
}

// NewPluginHandler creates a new PluginHandler with the given manager.
func NewPluginHandler(m *plugin.Manager) *PluginHandler {
	return &PluginHandler{manager: m}
}

type listPluginsResponse struct {
	Plugins []plugin.Manifest `json:"plugins"`
}

// ServeHTTP handles GET /api/plugins.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.manager.List()
	response := listPluginsResponse{
		Plugins: make([]plugin.Manifest, 0, len(plugins)),
	}
	for _, p := range plugins {
		response.Plugins = append(response.Plugins, p.Manifest)
	}

	writeJSON(w, http.StatusOK, response)
}

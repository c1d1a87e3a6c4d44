package httpapi

import (
	"encoding/json"
	"net/http"

	"jobscout-engine/internal/connector"
)

type HealthHandler struct {
	Registry *connector.Registry
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":         true,
		"connectors": h.Registry.IDs(),
	})
}

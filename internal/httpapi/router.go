package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach extra routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Automations
	ah := AutomationsHandler{DB: d.DB, Registry: d.Registry, Run: d.RunAutomation, UserID: d.UserID}
	mux.HandleFunc("/automations", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ah.List,
		http.MethodPost: ah.Create,
	}))
	mux.HandleFunc("/automations/", ah.Route) // /automations/{id}[/run|pause|resume|runs]

	// Jobs
	jh := JobsHandler{DB: d.DB, UserID: d.UserID}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodPatch: jh.PatchByPath, // expects /jobs/{id}
	}))

	// Connectors
	mux.HandleFunc("/connectors", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"connectors": d.Registry.IDs()})
		},
	}))

	// Secrets
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/secrets/scoring", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetScoringKey,
	}))
	mux.HandleFunc("/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health
	hh := HealthHandler{Registry: d.Registry}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setScoringKeyReq struct {
	APIKey string `json:"apiKey"`
}

func (h SecretsHandler) SetScoringKey(w http.ResponseWriter, r *http.Request) {
	var req setScoringKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := secrets.SetScoringAPIKey(req.APIKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	account := secrets.IMAPKeyringAccount(cfg.Email.Username, cfg.Email.IMAPHost)
	if err := secrets.SetIMAPPassword(account, req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

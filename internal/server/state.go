package server

import (
	"encoding/json"
	"net/http"

	"github.com/gaspardpetit/chatpredict/internal/logx"
	"github.com/gaspardpetit/chatpredict/internal/serverstate"
)

// StateHandler reports the lifecycle state of the server as JSON.
func StateHandler(t *serverstate.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(t.Snapshot()); err != nil {
			logx.Log.Error().Err(err).Msg("encode state")
		}
	}
}

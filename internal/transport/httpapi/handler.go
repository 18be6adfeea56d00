package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ordena-bot/server/internal/agent/model"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// Engine is the dialog core seen from the transport boundary. It always
// produces a well-formed reply; transport-level failures here are limited to
// unreadable request bodies.
type Engine interface {
	Handle(ctx context.Context, in model.Inbound) model.Reply
}

const msgUnreadable = "No pude leer tu mensaje. Intenta de nuevo, por favor."

type webhookResponse struct {
	Replies []model.Segment `json:"replies"`
}

// Router builds the webhook HTTP surface.
func Router(engine Engine) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/webhook", webhook(engine)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	return logMiddleware(r)
}

func webhook(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.Inbound
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			// a broken envelope still gets a readable reply, not a bare 400
			writeReply(w, model.TextReply(msgUnreadable))
			return
		}

		reply := engine.Handle(r.Context(), in)
		writeReply(w, reply)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeReply(w http.ResponseWriter, reply model.Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(webhookResponse{Replies: reply.Segments}); err != nil {
		logx.Error().Err(err).Msg("failed to write webhook response")
	}
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logx.Info().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Str("remote_addr", r.RemoteAddr).
			Msg("got a new request")
		h.ServeHTTP(w, r)
	})
}

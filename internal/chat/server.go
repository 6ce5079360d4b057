package chat

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

type ServerOptions struct {
	AllowedOrigins   []string
	MaxMessageLength int
}

// NewHandler builds the chat API: POST /api/chat and GET /healthz behind
// request ids, logging, panic recovery and CORS.
func NewHandler(runner Runner, opts ServerOptions, logger *zap.Logger) http.Handler {
	logger = logger.Named("chat")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", Handler(runner, opts.MaxMessageLength, logger))
	mux.HandleFunc("GET /healthz", HealthHandler)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	var h http.Handler = mux
	h = Recover(logger)(h)
	h = Logging(logger)(h)
	h = RequestID(h)
	return c.Handler(h)
}

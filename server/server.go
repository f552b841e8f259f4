package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-signin-service/interaction"
	"github.com/jrsteele09/go-signin-service/internal/config"
	"github.com/jrsteele09/go-signin-service/saml"
	"github.com/jrsteele09/go-signin-service/verification"
)

type Server struct {
	env      string // Environment (e.g., "development", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	features config.Features

	deps      interaction.Deps
	codes     *verification.CodeService
	mfa       verification.MFASecrets
	handshake *saml.Handshake
}

func New(
	cfg config.Config,
	deps interaction.Deps,
	codes *verification.CodeService,
	mfa verification.MFASecrets,
	handshake *saml.Handshake,
) (*Server, error) {
	if codes == nil {
		return nil, errors.New("[Server New] code service is required")
	}
	if handshake == nil {
		return nil, errors.New("[Server New] saml handshake is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		features:  config.NewFeatures(cfg),
		deps:      deps,
		codes:     codes,
		mfa:       mfa,
		handshake: handshake,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Package api exposes recorded benchmark runs over HTTP: the
// leaderboard, per-model history, and parsed result files with their
// aggregate breakdowns. The API is read only; runs are started from the
// CLI.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/qbench/internal/config"
	"github.com/stellarlinkco/qbench/internal/leaderboard"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	lbStore *leaderboard.Store
}

func NewServer(cfg *config.Config, lbStore *leaderboard.Store) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:  r,
		config:  cfg,
		lbStore: lbStore,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}

package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("QBENCH_API_KEY"))
	if apiKey != "" {
		api.Use(requireAPIKey(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("QBENCH_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set QBENCH_API_KEY or set QBENCH_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)

	api.GET("/leaderboard", s.handleLeaderboard)
	api.GET("/leaderboard/history", s.handleModelHistory)

	api.GET("/results", s.handleListResults)
	api.GET("/results/:file", s.handleGetResults)
	api.GET("/results/:file/report", s.handleGetReport)

	return nil
}

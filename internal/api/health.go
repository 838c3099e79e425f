package api

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Coins    int    `json:"coins"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "not configured"
	if s.deps.Pool != nil {
		dbStatus = "connected"
		if err := s.deps.Pool.Ping(ctx); err != nil {
			dbStatus = "disconnected"
			status = "degraded"
		}
	}

	redisStatus := "not configured"
	if s.deps.Redis != nil {
		redisStatus = "connected"
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: healthServices{
			Database: dbStatus,
			Redis:    redisStatus,
			Coins:    s.deps.Catalogue.Len(),
		},
	})
}

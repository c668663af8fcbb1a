package api

import (
	"github.com/smazurov/scalerwatch/internal/monitor"
	"github.com/smazurov/scalerwatch/internal/version"
)

// HealthData is the body of GET /api/health.
type HealthData struct {
	Status string `json:"status" example:"ok" doc:"ok while the loop runs, degraded otherwise"`
	State  string `json:"state" example:"running" doc:"Monitor lifecycle state"`
	Stale  bool   `json:"stale" doc:"Frame unchanged past the stale threshold"`
}

type HealthResponse struct {
	Body HealthData
}

type StatusResponse struct {
	Body monitor.Status
}

type VersionResponse struct {
	Body version.Info
}

// CaptureRequest is the body of POST /api/capture.
type CaptureRequest struct {
	Body struct {
		Name string `json:"name,omitempty" example:"MiSTer_small.png" pattern:"^[A-Za-z0-9._-]*$" maxLength:"128" doc:"File name; empty selects the default"`
	}
}

// CaptureData describes a saved frame.
type CaptureData struct {
	Path       string `json:"path" example:"/tmp/screenshots/MiSTer_small.png" doc:"Written file"`
	Resolution string `json:"resolution" example:"640x480" doc:"Captured geometry"`
	Format     string `json:"format" example:"RGB24" doc:"Source pixel format"`
}

type CaptureResponse struct {
	Body CaptureData
}

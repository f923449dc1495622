package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	"github.com/marmos91/dittodrive/pkg/thumbnail"
)

type createRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

func (a *HTTPAdapter) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var data []byte
	if req.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid data")
			return
		}
		data = decoded
	}

	proj, err := a.service.Create(r.Context(), callerFrom(r), drive.CreateRequest{
		Name:     req.Name,
		Kind:     req.Type,
		ParentID: parseParentID(req.ParentID),
		IsPublic: req.IsPublic,
		Data:     data,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, proj)
}

func (a *HTTPAdapter) handleGet(w http.ResponseWriter, r *http.Request) {
	id := metadata.NodeID(chi.URLParam(r, "id"))

	proj, err := a.service.Get(r.Context(), callerFrom(r), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proj)
}

func (a *HTTPAdapter) handleList(w http.ResponseWriter, r *http.Request) {
	parent := parseParentID(r.URL.Query().Get("parentId"))

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		// Unparsable page values fall back to the first page.
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	projections, err := a.service.List(r.Context(), callerFrom(r), parent, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projections)
}

func (a *HTTPAdapter) handlePublish(w http.ResponseWriter, r *http.Request) {
	a.setVisibility(w, r, true)
}

func (a *HTTPAdapter) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	a.setVisibility(w, r, false)
}

func (a *HTTPAdapter) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	id := metadata.NodeID(chi.URLParam(r, "id"))

	var (
		proj *drive.Projection
		err  error
	)
	if public {
		proj, err = a.service.Publish(r.Context(), callerFrom(r), id)
	} else {
		proj, err = a.service.Unpublish(r.Context(), callerFrom(r), id)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proj)
}

func (a *HTTPAdapter) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := metadata.NodeID(chi.URLParam(r, "id"))

	width := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !validThumbnailWidth(n) {
			writeError(w, http.StatusBadRequest, "Invalid size")
			return
		}
		width = n
	}

	data, contentType, err := a.service.FetchContent(r.Context(), callerFrom(r), id, width)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Debug("Failed to write response body: %v", err)
	}
}

type statusResponse struct {
	Status     string `json:"status"`
	QueueDepth *int   `json:"queueDepth,omitempty"`
}

func (a *HTTPAdapter) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "ok"}

	if a.jobs != nil {
		depth, err := a.jobs.Depth(r.Context())
		if err != nil {
			logger.Warn("Queue depth check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "degraded"})
			return
		}
		resp.QueueDepth = &depth
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseParentID maps the wire-level parent field to the internal root
// sentinel. Clients send "0" (or omit the field) for the root.
func parseParentID(raw string) metadata.NodeID {
	if raw == "" || raw == "0" {
		return metadata.RootID
	}
	return metadata.NodeID(raw)
}

func validThumbnailWidth(n int) bool {
	for _, width := range thumbnail.Sizes {
		if n == width {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the service error taxonomy onto HTTP statuses.
// Storage failures and unclassified errors are reported opaquely.
func writeDomainError(w http.ResponseWriter, err error) {
	code, ok := drive.CodeOf(err)
	if !ok {
		logger.Error("Unclassified error reached the HTTP adapter: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch code {
	case drive.CodeValidation, drive.CodeInvalidOperation:
		writeError(w, http.StatusBadRequest, err.Error())
	case drive.CodeNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

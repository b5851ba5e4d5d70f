package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/doc2dev/doc2dev/internal/gitref"
	"github.com/doc2dev/doc2dev/internal/service"
)

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	RepoURL     string `json:"repo_url"`
	LibraryName string `json:"library_name,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

// DownloadResponse is the admission outcome returned with 202.
type DownloadResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	TableName string `json:"table_name"`
	QueryURL  string `json:"query_url"`
	RepoPath  string `json:"repo_path"`
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	TableName string `json:"table_name"`
	K         int    `json:"k,omitempty"`
	Summarize bool   `json:"summarize,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "repo_url is required")
		return
	}

	outcome, err := s.ingest.Submit(r.Context(), service.SubmitRequest{
		RepoURL:   req.RepoURL,
		TableName: req.LibraryName,
		ClientID:  req.ClientID,
	})
	if err != nil {
		if errors.Is(err, gitref.ErrInvalidReference) || errors.Is(err, gitref.ErrInvalidTableName) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("submit failed", "repo_url", req.RepoURL, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to submit repository")
		return
	}

	message := fmt.Sprintf("ingestion of %s started", outcome.RepoPath)
	if outcome.Status == service.StatusExists {
		if outcome.ExistingStatus.Terminal() {
			message = fmt.Sprintf("%s is already ingested", outcome.RepoPath)
		} else {
			message = fmt.Sprintf("ingestion of %s is already in progress", outcome.RepoPath)
		}
	}

	writeJSON(w, http.StatusAccepted, DownloadResponse{
		Status:    string(outcome.Status),
		Message:   message,
		TableName: outcome.TableName,
		QueryURL:  outcome.QueryURL,
		RepoPath:  outcome.RepoPath,
	})
}

func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := s.repos.List(r.Context())
	if err != nil {
		s.logger.Error("list repositories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list repositories")
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *Server) handleGetRepository(w http.ResponseWriter, r *http.Request) {
	// Paths arrive with underscores standing in for the owner/name slash.
	path := strings.Replace(r.PathValue("path"), "_", "/", 1)

	repo, err := s.repos.GetByPath(r.Context(), path)
	if err != nil {
		s.logger.Error("get repository failed", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load repository")
		return
	}
	if repo == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("repository %s not found", path))
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.repos.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete repository failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete repository")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" || req.TableName == "" {
		writeError(w, http.StatusBadRequest, "query and table_name are required")
		return
	}
	// Table names are interpolated into SurrealQL, so anything outside a plain
	// identifier is rejected before it reaches the store.
	if !gitref.ValidTableName(req.TableName) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid table_name %q", req.TableName))
		return
	}

	result, err := s.search.Search(r.Context(), req.TableName, req.Query, req.K, req.Summarize)
	if err != nil {
		s.logger.Error("query failed", "table", req.TableName, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	repos, err := s.repos.List(r.Context())
	if err != nil {
		s.logger.Error("info lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to gather info")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         "doc2dev",
		"version":      s.version,
		"repositories": len(repos),
		"subscribers":  s.hub.Count(),
		"metrics":      s.metrics.Snapshot(),
	})
}

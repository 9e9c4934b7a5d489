package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/usecase"
)

// RetrievalRecorder gets the fused hit count of every successful retrieve.
type RetrievalRecorder interface {
	RecordRetrieval(service, endpoint string, hitCount int)
}

type Router struct {
	retrieveUC *usecase.RetrieveUseCase
	answerUC   *usecase.AnswerUseCase
	defaults   domain.RetrievalConfig
	recorder   RetrievalRecorder
}

func NewRouter(
	retrieveUC *usecase.RetrieveUseCase,
	answerUC *usecase.AnswerUseCase,
	defaults domain.RetrievalConfig,
	recorder RetrievalRecorder,
) *Router {
	return &Router{
		retrieveUC: retrieveUC,
		answerUC:   answerUC,
		defaults:   defaults,
		recorder:   recorder,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/snapshot", rt.snapshot)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query  string                  `json:"query"`
		Config *domain.RetrievalConfig `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	cfg := rt.defaults
	if req.Config != nil {
		cfg = *req.Config
	}

	hits, err := rt.retrieveUC.Retrieve(r.Context(), req.Query, cfg)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.recorder != nil {
		rt.recorder.RecordRetrieval("api", "/v1/retrieve", len(hits))
	}

	snapshotID := ""
	if snap, snapErr := rt.retrieveUC.Snapshot(); snapErr == nil {
		snapshotID = snap.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_id": snapshotID,
		"hits":        hits,
	})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
		TopN     int    `json:"top_n"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	answer, err := rt.answerUC.Ask(r.Context(), req.Question, req.TopN)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.recorder != nil {
		rt.recorder.RecordRetrieval("api", "/v1/ask", len(answer.Sources))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	snap, err := rt.retrieveUC.Snapshot()
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_id": snap.ID,
		"created_at":  snap.CreatedAt,
		"chunks":      snap.Len(),
		"documents":   len(snap.Documents()),
		"dimension":   snap.Dimension(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

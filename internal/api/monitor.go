package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sqlpulse/sqlpulse/internal/monitor"
)

type monitorAPI struct {
	deps Deps
}

// status returns the most recent snapshot.
func (a *monitorAPI) status(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.deps.Store.Buffer().Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no metrics collected yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// metrics returns buffered snapshots, or archived ones when the requested
// window reaches beyond the ring.
func (a *monitorAPI) metrics(w http.ResponseWriter, r *http.Request) {
	minutes := 60
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minutes = n
		}
	}
	from := time.Now().Add(-time.Duration(minutes) * time.Minute)

	snaps := a.deps.Store.Buffer().Since(from)
	if len(snaps) == 0 && a.deps.Store.History() != nil {
		archived, err := a.deps.Store.History().Range(from, time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		snaps = archived
	}
	writeJSON(w, http.StatusOK, snaps)
}

// alerts returns the alerts from the latest monitoring iteration.
func (a *monitorAPI) alerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.deps.Monitor.ActiveAlerts())
}

// report aggregates the last N hours of snapshots.
func (a *monitorAPI) report(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}

	rep, err := a.deps.Monitor.Report(time.Duration(hours) * time.Hour)
	if err != nil {
		if errors.Is(err, monitor.ErrNoMetrics) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type profileRequest struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

// profile runs one query under server-side profiling.
func (a *monitorAPI) profile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := a.deps.Profiler.Profile(r.Context(), req.Query, req.Params...)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

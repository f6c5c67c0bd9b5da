// Package api exposes the analysis pipeline and the patient/session store
// over HTTP. Handlers are plain net/http; responses are JSON except for the
// chart endpoints, which return standalone HTML pages.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/stride-data/gaitmat/internal/db"
	"github.com/stride-data/gaitmat/internal/gait"
	"github.com/stride-data/gaitmat/internal/gait/monitor"
	"github.com/stride-data/gaitmat/internal/httputil"
	"github.com/stride-data/gaitmat/internal/monitoring"
)

// maxUploadBytes caps recording uploads. A ten-minute 32x96 recording at
// 30 Hz is well under this.
const maxUploadBytes = 64 << 20

type Server struct {
	analyzer *gait.Analyzer
	db       *db.DB
}

// NewServer wires the analyzer to the store. db may be nil for a
// stateless, analyse-only server; persistence endpoints then return 503.
func NewServer(analyzer *gait.Analyzer, database *db.DB) *Server {
	return &Server{analyzer: analyzer, db: database}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/patients", s.handlePatients)
	mux.HandleFunc("/patients/", s.handlePatientByID)
	mux.HandleFunc("/sessions/", s.handleSessionByID)
	mux.HandleFunc("/results/", s.handleResultByID)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// requireDB guards persistence endpoints when the server runs without a
// store.
func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return false
	}
	return true
}

// handleAnalyze accepts a multipart CSV upload under the "file" field,
// runs the pipeline and returns the result. With a session_id form value
// the result is also persisted and the response carries the result_id.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "expected multipart form upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing \"file\" field")
		return
	}
	defer file.Close()

	patient := patientFromForm(r)
	res, err := s.analyzer.AnalyzeReader(file, header.Filename, patient)
	if err != nil {
		if errors.Is(err, gait.ErrNoValidFrames) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, "analysis failed: "+err.Error())
		return
	}

	type analyzeResponse struct {
		ResultID string               `json:"result_id,omitempty"`
		Result   *gait.AnalysisResult `json:"result"`
	}
	resp := analyzeResponse{Result: res}

	if sessionID := r.FormValue("session_id"); sessionID != "" {
		if !s.requireDB(w) {
			return
		}
		id, err := s.db.SaveResult(sessionID, res)
		if err != nil {
			httputil.InternalServerError(w, "failed to store result: "+err.Error())
			return
		}
		resp.ResultID = id
		monitoring.Logf("api: stored result %s for session %s (%s)", id, sessionID, header.Filename)
	}

	httputil.WriteJSONOK(w, resp)
}

// patientFromForm reads the optional patient fields of an analyze upload.
// Returns nil when no field is set.
func patientFromForm(r *http.Request) *gait.PatientInfo {
	name := r.FormValue("patient_name")
	if name == "" {
		return nil
	}
	p := &gait.PatientInfo{Name: name, Gender: r.FormValue("patient_gender")}
	p.Age, _ = strconv.Atoi(r.FormValue("patient_age"))
	p.HeightCm, _ = strconv.ParseFloat(r.FormValue("patient_height_cm"), 64)
	p.WeightKg, _ = strconv.ParseFloat(r.FormValue("patient_weight_kg"), 64)
	return p
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		patients, err := s.db.ListPatients()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, patients)
	case http.MethodPost:
		var p db.Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			httputil.BadRequest(w, "invalid patient body: "+err.Error())
			return
		}
		id, err := s.db.CreatePatient(p)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, map[string]string{"patient_id": id})
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handlePatientByID serves /patients/{id} and /patients/{id}/sessions.
func (s *Server) handlePatientByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/patients/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		httputil.BadRequest(w, "missing patient id")
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "sessions" {
		s.handlePatientSessions(w, r, id)
		return
	}
	if len(parts) != 1 {
		httputil.NotFound(w, "unknown patient resource")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.db.GetPatient(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, p)
	case http.MethodPut:
		var p db.Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			httputil.BadRequest(w, "invalid patient body: "+err.Error())
			return
		}
		p.PatientID = id
		if err := s.db.UpdatePatient(p); err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"patient_id": id})
	case http.MethodDelete:
		if err := s.db.DeletePatient(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"patient_id": id})
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handlePatientSessions(w http.ResponseWriter, r *http.Request, patientID string) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.db.ListSessions(patientID)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, sessions)
	case http.MethodPost:
		var body struct {
			Note string `json:"note"`
		}
		if r.Body != nil {
			// Note is optional; an empty body is fine.
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		id, err := s.db.CreateSession(patientID, body.Note)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, map[string]string{"session_id": id})
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleSessionByID serves /sessions/{id}, /sessions/{id}/results and
// /sessions/{id}/summary.
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		httputil.BadRequest(w, "missing session id")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		session, err := s.db.GetSession(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteJSONOK(w, session)
	case len(parts) == 2 && parts[1] == "results":
		records, err := s.db.ListResults(id)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, records)
	case len(parts) == 2 && parts[1] == "summary":
		summary, err := s.db.SessionGaitSummary(id)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, summary)
	default:
		httputil.NotFound(w, "unknown session resource")
	}
}

// handleResultByID serves /results/{id} and the chart pages
// /results/{id}/charts/{cop|pressure}.
func (s *Server) handleResultByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/results/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		httputil.BadRequest(w, "missing result id")
		return
	}

	rec, err := s.db.GetResult(parts[0])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if len(parts) == 1 {
		httputil.WriteJSONOK(w, rec)
		return
	}
	if len(parts) != 3 || parts[1] != "charts" {
		httputil.NotFound(w, "unknown result resource")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch parts[2] {
	case "cop":
		err = monitor.RenderCopScatter(w, rec.Result)
	case "pressure":
		err = monitor.RenderPressureLine(w, rec.Result)
	default:
		httputil.NotFound(w, "unknown chart")
		return
	}
	if err != nil {
		monitoring.Logf("api: chart render failed for result %s: %v", parts[0], err)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}

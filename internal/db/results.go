package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stride-data/gaitmat/internal/gait"
)

// Session groups the recordings of one clinical visit.
type Session struct {
	SessionID string    `json:"session_id"`
	PatientID string    `json:"patient_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultRecord is a stored analysis result: the queryable summary columns
// plus the full result payload.
type ResultRecord struct {
	ResultID          string    `json:"result_id"`
	SessionID         string    `json:"session_id"`
	SourceName        string    `json:"source_name"`
	TestType          string    `json:"test_type"`
	IsWalking         bool      `json:"is_walking"`
	StepCount         int       `json:"step_count"`
	AvgStepLengthCm   float64   `json:"avg_step_length_cm"`
	AvgVelocityMps    float64   `json:"avg_velocity_mps"`
	CadenceSpm        float64   `json:"cadence_spm"`
	StabilityIndexPct float64   `json:"stability_index_pct"`
	CopAreaCm2        float64   `json:"cop_area_cm2"`
	CreatedAt         time.Time `json:"created_at"`

	Result *gait.AnalysisResult `json:"result,omitempty"`
}

// CreateSession opens a session for a patient and returns the assigned ID.
func (db *DB) CreateSession(patientID, note string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, patient_id, note) VALUES (?, ?, ?)`,
		id, patientID, note,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// GetSession returns one session by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	err := db.QueryRow(
		`SELECT session_id, patient_id, note, created_at FROM sessions WHERE session_id = ?`, id,
	).Scan(&s.SessionID, &s.PatientID, &s.Note, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

// ListSessions returns the sessions of one patient, newest first.
func (db *DB) ListSessions(patientID string) ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, patient_id, note, created_at
		 FROM sessions WHERE patient_id = ? ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.SessionID, &s.PatientID, &s.Note, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SaveResult stores an analysis result under a session and returns the
// result ID. The summary columns are denormalised from the result for
// querying; the payload column holds the full JSON.
func (db *DB) SaveResult(sessionID string, res *gait.AnalysisResult) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	id := uuid.NewString()
	_, err = db.Exec(
		`INSERT INTO results (
			result_id, session_id, source_name, test_type, is_walking, step_count,
			avg_step_length_cm, avg_velocity_mps, cadence_spm,
			stability_index_pct, cop_area_cm2, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sessionID, res.FileInfo.Path, string(res.TestType),
		res.Gait.IsWalking, res.Gait.StepCount,
		res.Gait.AverageStepLengthCm, res.Gait.AverageVelocityMps, res.Gait.CadenceStepsPerMin,
		res.Balance.StabilityIndexPct, res.Balance.CopAreaCm2, string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("insert result: %w", err)
	}
	return id, nil
}

// GetResult returns one stored result with its full payload decoded.
func (db *DB) GetResult(id string) (*ResultRecord, error) {
	var rec ResultRecord
	var payload string
	err := db.QueryRow(
		`SELECT result_id, session_id, source_name, test_type, is_walking, step_count,
			avg_step_length_cm, avg_velocity_mps, cadence_spm,
			stability_index_pct, cop_area_cm2, payload, created_at
		 FROM results WHERE result_id = ?`, id,
	).Scan(
		&rec.ResultID, &rec.SessionID, &rec.SourceName, &rec.TestType,
		&rec.IsWalking, &rec.StepCount,
		&rec.AvgStepLengthCm, &rec.AvgVelocityMps, &rec.CadenceSpm,
		&rec.StabilityIndexPct, &rec.CopAreaCm2, &payload, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select result: %w", err)
	}

	var full gait.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &full); err != nil {
		return nil, fmt.Errorf("decode result payload: %w", err)
	}
	rec.Result = &full
	return &rec, nil
}

// ListResults returns the summary rows of one session, oldest first, without
// payloads.
func (db *DB) ListResults(sessionID string) ([]ResultRecord, error) {
	rows, err := db.Query(
		`SELECT result_id, session_id, source_name, test_type, is_walking, step_count,
			avg_step_length_cm, avg_velocity_mps, cadence_spm,
			stability_index_pct, cop_area_cm2, created_at
		 FROM results WHERE session_id = ? ORDER BY created_at ASC, result_id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		if err := rows.Scan(
			&rec.ResultID, &rec.SessionID, &rec.SourceName, &rec.TestType,
			&rec.IsWalking, &rec.StepCount,
			&rec.AvgStepLengthCm, &rec.AvgVelocityMps, &rec.CadenceSpm,
			&rec.StabilityIndexPct, &rec.CopAreaCm2, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SessionGaitSummary merges the gait parameters of all stored walking
// results of a session into one step-count-weighted summary.
func (db *DB) SessionGaitSummary(sessionID string) (gait.GaitParameters, error) {
	rows, err := db.Query(`SELECT payload FROM results WHERE session_id = ?`, sessionID)
	if err != nil {
		return gait.GaitParameters{}, fmt.Errorf("load session payloads: %w", err)
	}
	defer rows.Close()

	var params []gait.GaitParameters
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return gait.GaitParameters{}, err
		}
		var res gait.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return gait.GaitParameters{}, fmt.Errorf("decode result payload: %w", err)
		}
		params = append(params, res.Gait)
	}
	if err := rows.Err(); err != nil {
		return gait.GaitParameters{}, err
	}
	return gait.MergeGaitParameters(params), nil
}

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("record not found")

// Patient is the subject record results are filed under.
type Patient struct {
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	HeightCm  float64   `json:"height_cm"`
	WeightKg  float64   `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePatient inserts a patient and returns the assigned ID.
func (db *DB) CreatePatient(p Patient) (string, error) {
	if p.Name == "" {
		return "", fmt.Errorf("patient name is required")
	}
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO patients (patient_id, name, age, gender, height_cm, weight_kg)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.Age, p.Gender, p.HeightCm, p.WeightKg,
	)
	if err != nil {
		return "", fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

// GetPatient returns one patient by ID.
func (db *DB) GetPatient(id string) (*Patient, error) {
	var p Patient
	err := db.QueryRow(
		`SELECT patient_id, name, age, gender, height_cm, weight_kg, created_at
		 FROM patients WHERE patient_id = ?`, id,
	).Scan(&p.PatientID, &p.Name, &p.Age, &p.Gender, &p.HeightCm, &p.WeightKg, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select patient: %w", err)
	}
	return &p, nil
}

// ListPatients returns all patients, newest first.
func (db *DB) ListPatients() ([]Patient, error) {
	rows, err := db.Query(
		`SELECT patient_id, name, age, gender, height_cm, weight_kg, created_at
		 FROM patients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.PatientID, &p.Name, &p.Age, &p.Gender, &p.HeightCm, &p.WeightKg, &p.CreatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// UpdatePatient overwrites the mutable fields of a patient.
func (db *DB) UpdatePatient(p Patient) error {
	res, err := db.Exec(
		`UPDATE patients SET name = ?, age = ?, gender = ?, height_cm = ?, weight_kg = ?
		 WHERE patient_id = ?`,
		p.Name, p.Age, p.Gender, p.HeightCm, p.WeightKg, p.PatientID,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePatient removes a patient. Sessions referencing it keep their rows;
// SQLite enforces the foreign key, so deletion fails while sessions exist.
func (db *DB) DeletePatient(id string) error {
	res, err := db.Exec(`DELETE FROM patients WHERE patient_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

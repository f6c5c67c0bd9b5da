package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stride-data/gaitmat/internal/gait"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "gaitmat_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestMigrations(t *testing.T) {
	database := newTestDB(t)

	version, dirty, err := database.MigrateVersion(MigrationsFS())
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	// Re-running is a no-op.
	require.NoError(t, database.MigrateUp(MigrationsFS()))

	// Down drops the schema.
	require.NoError(t, database.MigrateDown(MigrationsFS()))
	var count int
	err = database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='patients'`).Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPatientCRUD(t *testing.T) {
	database := newTestDB(t)

	id, err := database.CreatePatient(Patient{Name: "A. Tester", Age: 71, Gender: "f", HeightCm: 168, WeightKg: 62})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := database.GetPatient(id)
	require.NoError(t, err)
	require.Equal(t, "A. Tester", got.Name)
	require.Equal(t, 71, got.Age)
	require.False(t, got.CreatedAt.IsZero())

	got.Age = 72
	require.NoError(t, database.UpdatePatient(*got))
	got, err = database.GetPatient(id)
	require.NoError(t, err)
	require.Equal(t, 72, got.Age)

	patients, err := database.ListPatients()
	require.NoError(t, err)
	require.Len(t, patients, 1)

	require.NoError(t, database.DeletePatient(id))
	_, err = database.GetPatient(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPatientValidationAndMissing(t *testing.T) {
	database := newTestDB(t)

	_, err := database.CreatePatient(Patient{})
	require.Error(t, err, "empty name must be rejected")

	_, err = database.GetPatient("no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, database.UpdatePatient(Patient{PatientID: "no-such-id", Name: "x"}), ErrNotFound)
	require.ErrorIs(t, database.DeletePatient("no-such-id"), ErrNotFound)
}

func TestSessionForeignKey(t *testing.T) {
	database := newTestDB(t)

	_, err := database.CreateSession("no-such-patient", "")
	require.Error(t, err, "sessions must reference an existing patient")

	pid, err := database.CreatePatient(Patient{Name: "B"})
	require.NoError(t, err)
	sid, err := database.CreateSession(pid, "first visit")
	require.NoError(t, err)

	s, err := database.GetSession(sid)
	require.NoError(t, err)
	require.Equal(t, pid, s.PatientID)
	require.Equal(t, "first visit", s.Note)

	// A patient with sessions cannot be deleted.
	require.Error(t, database.DeletePatient(pid))

	sessions, err := database.ListSessions(pid)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func walkResult(source string, stepCount int, stepLenCm float64) *gait.AnalysisResult {
	return &gait.AnalysisResult{
		FileInfo: gait.FileInfo{Path: source, Format: gait.FormatFlatMatrix, TotalFrames: 300, DurationS: 10},
		TestType: gait.TestWalk,
		Gait: gait.GaitParameters{
			IsWalking:           true,
			StepCount:           stepCount,
			AverageStepLengthCm: stepLenCm,
			AverageVelocityMps:  1.1,
			CadenceStepsPerMin:  95,
			StancePhasePct:      61,
			SwingPhasePct:       39,
		},
		Balance: gait.BalanceMetrics{
			DataAvailable:     true,
			CopAreaCm2:        12.5,
			StabilityIndexPct: 75,
		},
		Hardware: gait.DefaultHardwareGeometry(),
	}
}

func TestSaveAndGetResult(t *testing.T) {
	database := newTestDB(t)

	pid, err := database.CreatePatient(Patient{Name: "C"})
	require.NoError(t, err)
	sid, err := database.CreateSession(pid, "")
	require.NoError(t, err)

	rid, err := database.SaveResult(sid, walkResult("walk_01.csv", 9, 58))
	require.NoError(t, err)

	rec, err := database.GetResult(rid)
	require.NoError(t, err)
	require.Equal(t, sid, rec.SessionID)
	require.Equal(t, "walk_01.csv", rec.SourceName)
	require.Equal(t, string(gait.TestWalk), rec.TestType)
	require.True(t, rec.IsWalking)
	require.Equal(t, 9, rec.StepCount)
	require.InDelta(t, 58, rec.AvgStepLengthCm, 1e-9)
	require.InDelta(t, 75, rec.StabilityIndexPct, 1e-9)

	require.NotNil(t, rec.Result)
	require.Equal(t, 300, rec.Result.FileInfo.TotalFrames)
	require.InDelta(t, 12.5, rec.Result.Balance.CopAreaCm2, 1e-9)

	_, err = database.GetResult("no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListResultsAndSessionSummary(t *testing.T) {
	database := newTestDB(t)

	pid, err := database.CreatePatient(Patient{Name: "D"})
	require.NoError(t, err)
	sid, err := database.CreateSession(pid, "")
	require.NoError(t, err)

	_, err = database.SaveResult(sid, walkResult("walk_01.csv", 10, 60))
	require.NoError(t, err)
	_, err = database.SaveResult(sid, walkResult("walk_02.csv", 30, 40))
	require.NoError(t, err)

	records, err := database.ListResults(sid)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Nil(t, rec.Result, "list rows must not carry payloads")
	}

	summary, err := database.SessionGaitSummary(sid)
	require.NoError(t, err)
	require.True(t, summary.IsWalking)
	require.Equal(t, 40, summary.StepCount)
	// Step-count weighted: (10*60 + 30*40) / 40.
	require.InDelta(t, 45, summary.AverageStepLengthCm, 1e-9)
}

func TestSaveResultRequiresSession(t *testing.T) {
	database := newTestDB(t)
	_, err := database.SaveResult("no-such-session", walkResult("x.csv", 5, 50))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound), "foreign key violation, not a lookup miss")
}

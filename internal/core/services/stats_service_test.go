package services

import (
	"testing"
	"time"

	"malita-clinic/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUserStats(t *testing.T) {
	appointments := []models.Appointment{
		{UserID: 1},                                     // pending
		{UserID: 1, IsCompleted: true},                  // approved
		{UserID: 1, Cancelled: true},                    // cancelled
		{UserID: 2, Cancelled: true, IsCompleted: true}, // cancelled wins
		{UserID: 2},
		{UserID: 3, IsCompleted: true},
	}

	stats := ComputeUserStats(appointments)
	require.Len(t, stats, 3)

	assert.Equal(t, &UserStats{Total: 3, Approved: 1, Pending: 1, Cancelled: 1}, stats[1])
	assert.Equal(t, &UserStats{Total: 2, Approved: 0, Pending: 1, Cancelled: 1}, stats[2])
	assert.Equal(t, &UserStats{Total: 1, Approved: 1, Pending: 0, Cancelled: 0}, stats[3])

	// Total always splits exactly into the three buckets
	for userID, st := range stats {
		assert.Equal(t, st.Total, st.Approved+st.Pending+st.Cancelled, "user %d", userID)
	}
}

func TestComputeUserStats_Empty(t *testing.T) {
	stats := ComputeUserStats(nil)
	assert.Empty(t, stats)
}

func TestGetDashboard(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	userRepo := newMockUserRepo(testPatient())
	base := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.Local)
	apptRepo := newMockApptRepo(
		&models.Appointment{ID: 1, UserID: 7, DoctorID: 1, BookedAt: base},
		&models.Appointment{ID: 2, UserID: 7, DoctorID: 1, Cancelled: true, BookedAt: base.Add(time.Hour)},
	)
	svc := NewStatsService(doctorRepo, userRepo, apptRepo)

	data, err := svc.GetDashboard()
	require.NoError(t, err)

	assert.Equal(t, int64(1), data.Doctors)
	assert.Equal(t, int64(1), data.Patients)
	assert.Equal(t, int64(2), data.Appointments)

	// Latest appointments come back newest first
	require.Len(t, data.LatestAppointments, 2)
	assert.Equal(t, uint(2), data.LatestAppointments[0].ID)
	assert.Equal(t, uint(1), data.LatestAppointments[1].ID)
}

func TestGetUserStats(t *testing.T) {
	apptRepo := newMockApptRepo(
		&models.Appointment{ID: 1, UserID: 7, DoctorID: 1, IsCompleted: true},
		&models.Appointment{ID: 2, UserID: 7, DoctorID: 1},
	)
	svc := NewStatsService(newMockDoctorRepo(), newMockUserRepo(), apptRepo)

	stats, err := svc.GetUserStats()
	require.NoError(t, err)
	assert.Equal(t, &UserStats{Total: 2, Approved: 1, Pending: 1}, stats[7])
}

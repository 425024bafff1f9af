package services

import (
	"context"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
)

// UserStats aggregates one patient's appointment counts
type UserStats struct {
	Total     int `json:"total"`
	Approved  int `json:"approved"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}

// ComputeUserStats folds an appointment set into per-user counters.
// Cancelled wins over approved; everything else counts as pending, so
// total always equals approved + pending + cancelled.
func ComputeUserStats(appointments []models.Appointment) map[uint]*UserStats {
	stats := make(map[uint]*UserStats)
	for _, appt := range appointments {
		st, ok := stats[appt.UserID]
		if !ok {
			st = &UserStats{}
			stats[appt.UserID] = st
		}

		st.Total++
		switch {
		case appt.Cancelled:
			st.Cancelled++
		case appt.IsCompleted:
			st.Approved++
		default:
			st.Pending++
		}
	}
	return stats
}

// StatsService serves the admin dashboard and per-user statistics
type StatsService struct {
	doctorRepo repositories.DoctorRepository
	userRepo   repositories.UserRepository
	apptRepo   repositories.AppointmentRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	doctorRepo repositories.DoctorRepository,
	userRepo repositories.UserRepository,
	apptRepo repositories.AppointmentRepository,
) *StatsService {
	return &StatsService{
		doctorRepo: doctorRepo,
		userRepo:   userRepo,
		apptRepo:   apptRepo,
	}
}

// DashboardData represents the admin dashboard payload
type DashboardData struct {
	Doctors            int64                `json:"doctors"`
	Patients           int64                `json:"patients"`
	Appointments       int64                `json:"appointments"`
	LatestAppointments []models.Appointment `json:"latest_appointments"`
}

const latestAppointmentsLimit = 10

// GetDashboard returns counts plus the most recent appointments
func (s *StatsService) GetDashboard() (*DashboardData, error) {
	doctors, err := s.doctorRepo.Count()
	if err != nil {
		return nil, err
	}
	patients, err := s.userRepo.Count(context.Background())
	if err != nil {
		return nil, err
	}

	total, err := s.apptRepo.Count()
	if err != nil {
		return nil, err
	}
	latest, err := s.apptRepo.ListLatest(latestAppointmentsLimit)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		Doctors:            doctors,
		Patients:           patients,
		Appointments:       total,
		LatestAppointments: latest,
	}, nil
}

// GetUserStats recomputes per-user appointment statistics on demand
func (s *StatsService) GetUserStats() (map[uint]*UserStats, error) {
	appts, err := s.apptRepo.ListAll()
	if err != nil {
		return nil, err
	}
	return ComputeUserStats(appts), nil
}

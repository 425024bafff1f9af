package services

import (
	"context"
	"sort"
	"sync"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Compile-time checks
var (
	_ repositories.DoctorRepository      = (*mockDoctorRepo)(nil)
	_ repositories.AppointmentRepository = (*mockApptRepo)(nil)
	_ repositories.UserRepository        = (*mockUserRepo)(nil)
)

// mockDoctorRepo is an in-memory DoctorRepository. UpdateSlotsFunc, when
// set, intercepts ledger writes.
type mockDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uint]*models.Doctor

	UpdateSlotsFunc func(id uint, slots models.SlotMap) error
}

func newMockDoctorRepo(doctors ...*models.Doctor) *mockDoctorRepo {
	repo := &mockDoctorRepo{doctors: make(map[uint]*models.Doctor)}
	for _, d := range doctors {
		repo.doctors[d.ID] = d
	}
	return repo
}

func (m *mockDoctorRepo) Create(doctor *models.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doctor.ID = uint(len(m.doctors) + 1)
	m.doctors[doctor.ID] = doctor
	return nil
}

func (m *mockDoctorRepo) GetByID(id uint) (*models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doctor, ok := m.doctors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Copy so callers mutate their own ledger view, like a row scan would
	cp := *doctor
	cp.SlotsBooked = make(models.SlotMap, len(doctor.SlotsBooked))
	for k, v := range doctor.SlotsBooked {
		cp.SlotsBooked[k] = append([]string(nil), v...)
	}
	return &cp, nil
}

func (m *mockDoctorRepo) List() ([]models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDoctorRepo) Update(id uint, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m *mockDoctorRepo) UpdateSlots(id uint, slots models.SlotMap) error {
	if m.UpdateSlotsFunc != nil {
		if err := m.UpdateSlotsFunc(id, slots); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doctor, ok := m.doctors[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doctor.SlotsBooked = slots
	return nil
}

func (m *mockDoctorRepo) Delete(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockDoctorRepo) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.doctors)), nil
}

// slots returns the stored ledger for assertions
func (m *mockDoctorRepo) slots(id uint) models.SlotMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doctors[id].SlotsBooked
}

// mockApptRepo is an in-memory AppointmentRepository. CreateFunc, when
// set, intercepts creation; GetByIDFunc runs after each successful read,
// letting a test hold a caller at a stale snapshot.
type mockApptRepo struct {
	mu           sync.Mutex
	nextID       uint
	appointments map[uint]*models.Appointment

	CreateFunc  func(appt *models.Appointment) error
	GetByIDFunc func(id uint)
}

func newMockApptRepo(appointments ...*models.Appointment) *mockApptRepo {
	repo := &mockApptRepo{appointments: make(map[uint]*models.Appointment)}
	for _, a := range appointments {
		if a.ID > repo.nextID {
			repo.nextID = a.ID
		}
		repo.appointments[a.ID] = a
	}
	return repo
}

func (m *mockApptRepo) Create(appt *models.Appointment) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(appt); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	appt.ID = m.nextID
	m.appointments[appt.ID] = appt
	return nil
}

func (m *mockApptRepo) GetByID(id uint) (*models.Appointment, error) {
	m.mu.Lock()
	appt, ok := m.appointments[id]
	if !ok {
		m.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	cp := *appt
	m.mu.Unlock()
	if m.GetByIDFunc != nil {
		m.GetByIDFunc(id)
	}
	return &cp, nil
}

func (m *mockApptRepo) ListByUser(userID uint) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockApptRepo) ListAll() ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockApptRepo) ListLatest(limit int) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.appointments {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.After(out[j].BookedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockApptRepo) ListOpen() ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.IsOpen() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockApptRepo) Update(id uint, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appointments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for field, value := range updates {
		switch field {
		case "cancelled":
			appt.Cancelled = value.(bool)
		case "cancelled_by":
			appt.CancelledBy = value.(string)
		case "cancellation_reason":
			appt.CancellationReason = value.(string)
		case "is_completed":
			appt.IsCompleted = value.(bool)
		case "payment":
			appt.Payment = value.(bool)
		case "is_read":
			appt.IsRead = value.(bool)
		}
	}
	return nil
}

func (m *mockApptRepo) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.appointments)), nil
}

func (m *mockApptRepo) get(id uint) *models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointments[id]
}

// mockUserRepo is an in-memory UserRepository
type mockUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uint(len(m.users) + 1)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["approval_status"].(string); ok {
		user.ApprovalStatus = status
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) ListByApprovalStatus(ctx context.Context, status string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.ApprovalStatus == status {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

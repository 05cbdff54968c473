package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/scheduling-api/internal/model"
	"github.com/clinicore/scheduling-api/internal/repository"
	"github.com/clinicore/scheduling-api/pkg/metrics"
)

type fakeAppointmentRepo struct {
	appointments  map[uuid.UUID]*model.Appointment
	events        []*model.OutboxEvent
	conflictCalls int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok || apt.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	copied := *apt
	return &copied, nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.IsDeleted() {
			continue
		}
		if filters.ProfessionalID != uuid.Nil && apt.ProfessionalID != filters.ProfessionalID {
			continue
		}
		copied := *apt
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) hasOverlap(professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, apt := range r.appointments {
		if apt.ProfessionalID != professionalID || apt.IsDeleted() || apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) HasConflict(_ context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	r.conflictCalls++
	return r.hasOverlap(professionalID, start, end, excludeID), nil
}

func (r *fakeAppointmentRepo) ListForProfessional(_ context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.ProfessionalID != professionalID || apt.IsDeleted() || apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if apt.Overlaps(from, to) {
			copied := *apt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) CreateWithEvent(_ context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	// Mirrors the storage-level exclusion guarantee.
	if r.hasOverlap(apt.ProfessionalID, apt.StartTime, apt.EndTime, nil) {
		return repository.ErrConflict
	}
	copied := *apt
	r.appointments[apt.ID] = &copied
	if evt != nil {
		r.events = append(r.events, evt)
	}
	return nil
}

func (r *fakeAppointmentRepo) UpdateWithEvent(_ context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	existing, ok := r.appointments[apt.ID]
	if !ok || existing.IsDeleted() {
		return repository.ErrNotFound
	}
	if r.hasOverlap(apt.ProfessionalID, apt.StartTime, apt.EndTime, &apt.ID) {
		return repository.ErrConflict
	}
	copied := *apt
	r.appointments[apt.ID] = &copied
	if evt != nil {
		r.events = append(r.events, evt)
	}
	return nil
}

func (r *fakeAppointmentRepo) SoftDeleteWithEvent(_ context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	existing, ok := r.appointments[apt.ID]
	if !ok || existing.IsDeleted() {
		return repository.ErrNotFound
	}
	now := time.Now()
	existing.DeletedAt = &now
	existing.DeletedReason = apt.DeletedReason
	existing.DeletedBy = apt.DeletedBy
	if evt != nil {
		r.events = append(r.events, evt)
	}
	return nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type fakeProfessionalRepo struct {
	professionals map[uuid.UUID]*model.Professional
}

func (r *fakeProfessionalRepo) Get(_ context.Context, id uuid.UUID) (*model.Professional, error) {
	p, ok := r.professionals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

type fakeServiceTypeRepo struct {
	serviceTypes map[uuid.UUID]*model.ServiceType
}

func (r *fakeServiceTypeRepo) Get(_ context.Context, id uuid.UUID) (*model.ServiceType, error) {
	st, ok := r.serviceTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return st, nil
}

type fakeClinicRepo struct {
	clinics  map[uuid.UUID]*model.Clinic
	getCalls int
}

func (r *fakeClinicRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	r.getCalls++
	c, ok := r.clinics[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

// allWeek returns a schedule with every day enabled for the same window.
func allWeek(start, end string) model.WeekSchedule {
	schedule := make(model.WeekSchedule, 7)
	for _, day := range []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		schedule[day] = model.DayWindow{Enabled: true, Start: start, End: end}
	}
	return schedule
}

type testEnv struct {
	svc            *Service
	appointments   *fakeAppointmentRepo
	clinics        *fakeClinicRepo
	clinicID       uuid.UUID
	patientID      uuid.UUID
	professionalID uuid.UUID
	serviceTypeID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clinicID := uuid.New()
	patientID := uuid.New()
	professionalID := uuid.New()
	serviceTypeID := uuid.New()

	appointments := newFakeAppointmentRepo()
	clinics := &fakeClinicRepo{clinics: map[uuid.UUID]*model.Clinic{
		clinicID: {
			Base:          model.Base{ID: clinicID},
			Name:          "Downtown Clinic",
			BusinessHours: allWeek("08:00", "18:00"),
		},
	}}

	repos := Repositories{
		Appointments: appointments,
		Patients: &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
			patientID: {Base: model.Base{ID: patientID}, ClinicID: clinicID, FullName: "Ana Souza"},
		}},
		Professionals: &fakeProfessionalRepo{professionals: map[uuid.UUID]*model.Professional{
			professionalID: {
				Base:         model.Base{ID: professionalID},
				ClinicID:     clinicID,
				FullName:     "Dr. Lima",
				Availability: allWeek("08:00", "18:00"),
			},
		}},
		ServiceTypes: &fakeServiceTypeRepo{serviceTypes: map[uuid.UUID]*model.ServiceType{
			serviceTypeID: {Base: model.Base{ID: serviceTypeID}, ClinicID: clinicID, Name: "Consultation", DurationMinutes: 30},
		}},
		Clinics: clinics,
	}

	svc := NewService(repos, nil, nil, metrics.New("test"), DefaultConfig())

	return &testEnv{
		svc:            svc,
		appointments:   appointments,
		clinics:        clinics,
		clinicID:       clinicID,
		patientID:      patientID,
		professionalID: professionalID,
		serviceTypeID:  serviceTypeID,
	}
}

// futureAt returns a day at least a week out at the given wall-clock time.
func futureAt(hour, minute int) time.Time {
	day := time.Now().AddDate(0, 0, 7)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
}

func (e *testEnv) bookRequest(start time.Time) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		ClinicID:       e.clinicID,
		PatientID:      e.patientID,
		ProfessionalID: e.professionalID,
		ServiceTypeID:  e.serviceTypeID,
		StartTime:      start,
	}
}

func TestBookSuccess(t *testing.T) {
	env := newTestEnv(t)

	result := env.svc.Book(context.Background(), env.bookRequest(futureAt(10, 0)))

	require.True(t, result.Success, "unexpected failure: %s %s", result.ErrorCode, result.ErrorMessage)
	require.NotNil(t, result.AppointmentID)

	apt, err := env.svc.Get(context.Background(), *result.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, env.professionalID, apt.ProfessionalID)
}

func TestBookComputesEndFromServiceDuration(t *testing.T) {
	env := newTestEnv(t)
	start := futureAt(10, 0)

	result := env.svc.Book(context.Background(), env.bookRequest(start))

	require.True(t, result.Success)
	apt, err := env.svc.Get(context.Background(), *result.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Minute), apt.EndTime)
}

func TestBookRejectsPastStart(t *testing.T) {
	env := newTestEnv(t)

	result := env.svc.Book(context.Background(), env.bookRequest(time.Now().Add(-time.Hour)))

	assert.False(t, result.Success)
	assert.Equal(t, ErrCodeInvalidTimePast, result.ErrorCode)
	assert.Empty(t, env.appointments.appointments)
}

func TestBookMissingIdentifiers(t *testing.T) {
	env := newTestEnv(t)
	start := futureAt(10, 0)

	tests := []struct {
		name     string
		mutate   func(*model.CreateAppointmentRequest)
		wantCode ErrorCode
	}{
		{"missing clinic", func(r *model.CreateAppointmentRequest) { r.ClinicID = uuid.Nil }, ErrCodeInvalidClinic},
		{"missing patient", func(r *model.CreateAppointmentRequest) { r.PatientID = uuid.Nil }, ErrCodeInvalidPatient},
		{"missing professional", func(r *model.CreateAppointmentRequest) { r.ProfessionalID = uuid.Nil }, ErrCodeInvalidProfessional},
		{"missing service type", func(r *model.CreateAppointmentRequest) { r.ServiceTypeID = uuid.Nil }, ErrCodeInvalidService},
		{"missing start time", func(r *model.CreateAppointmentRequest) { r.StartTime = time.Time{} }, ErrCodeInvalidStartTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.bookRequest(start)
			tt.mutate(req)
			result := env.svc.Book(context.Background(), req)
			assert.False(t, result.Success)
			assert.Equal(t, tt.wantCode, result.ErrorCode)
		})
	}
}

func TestBookRejectsEndBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	start := futureAt(10, 0)
	end := start.Add(-15 * time.Minute)

	req := env.bookRequest(start)
	req.EndTime = &end

	result := env.svc.Book(context.Background(), req)
	assert.Equal(t, ErrCodeInvalidEndTime, result.ErrorCode)
}

func TestBookUnknownServiceType(t *testing.T) {
	env := newTestEnv(t)

	req := env.bookRequest(futureAt(10, 0))
	req.ServiceTypeID = uuid.New()

	result := env.svc.Book(context.Background(), req)
	assert.Equal(t, ErrCodeServiceNotFound, result.ErrorCode)
}

func TestBookClinicMismatches(t *testing.T) {
	env := newTestEnv(t)
	start := futureAt(10, 0)

	t.Run("patient from another clinic", func(t *testing.T) {
		req := env.bookRequest(start)
		req.PatientID = uuid.New()
		result := env.svc.Book(context.Background(), req)
		assert.Equal(t, ErrCodePatientClinicMismatch, result.ErrorCode)
	})

	t.Run("professional from another clinic", func(t *testing.T) {
		req := env.bookRequest(start)
		req.ProfessionalID = uuid.New()
		result := env.svc.Book(context.Background(), req)
		assert.Equal(t, ErrCodeProfessionalClinicMismatch, result.ErrorCode)
	})
}

func TestBookConflictDetection(t *testing.T) {
	env := newTestEnv(t)
	tenAM := futureAt(10, 0)
	elevenAM := futureAt(11, 0)

	first := env.bookRequest(tenAM)
	first.EndTime = &elevenAM
	require.True(t, env.svc.Book(context.Background(), first).Success)

	t.Run("overlapping interval conflicts", func(t *testing.T) {
		start := futureAt(10, 30)
		end := futureAt(11, 30)
		req := env.bookRequest(start)
		req.EndTime = &end

		result := env.svc.Book(context.Background(), req)
		assert.False(t, result.Success)
		assert.Equal(t, ErrCodeAppointmentConflict, result.ErrorCode)
	})

	t.Run("touching boundary does not conflict", func(t *testing.T) {
		noon := futureAt(12, 0)
		req := env.bookRequest(elevenAM)
		req.EndTime = &noon

		result := env.svc.Book(context.Background(), req)
		assert.True(t, result.Success, "boundary touch rejected: %s", result.ErrorMessage)
	})
}

func TestBookOutsideBusinessHours(t *testing.T) {
	env := newTestEnv(t)

	result := env.svc.Book(context.Background(), env.bookRequest(futureAt(7, 0)))

	assert.Equal(t, ErrCodeOutsideBusinessHours, result.ErrorCode)
}

func TestBookProfessionalUnavailable(t *testing.T) {
	env := newTestEnv(t)

	// Professional only works mornings; clinic stays open all day.
	repos := env.svc.repos
	repos.Professionals.(*fakeProfessionalRepo).professionals[env.professionalID].Availability = allWeek("08:00", "12:00")

	result := env.svc.Book(context.Background(), env.bookRequest(futureAt(14, 0)))

	assert.Equal(t, ErrCodeProfessionalUnavailable, result.ErrorCode)
}

func TestUpdateNotesOnlySkipsTemporalChecks(t *testing.T) {
	env := newTestEnv(t)

	booked := env.svc.Book(context.Background(), env.bookRequest(futureAt(10, 0)))
	require.True(t, booked.Success)

	conflictCallsBefore := env.appointments.conflictCalls
	clinicCallsBefore := env.clinics.getCalls

	notes := "patient asked for a reminder call"
	result := env.svc.Update(context.Background(), *booked.AppointmentID, &model.UpdateAppointmentRequest{Notes: &notes})

	require.True(t, result.Success)
	assert.Equal(t, conflictCallsBefore, env.appointments.conflictCalls, "notes-only update ran a conflict check")
	assert.Equal(t, clinicCallsBefore, env.clinics.getCalls, "notes-only update ran a business-hours check")

	apt, err := env.svc.Get(context.Background(), *booked.AppointmentID)
	require.NoError(t, err)
	require.NotNil(t, apt.Notes)
	assert.Equal(t, notes, *apt.Notes)
}

func TestUpdateUnknownAppointment(t *testing.T) {
	env := newTestEnv(t)

	result := env.svc.Update(context.Background(), uuid.New(), &model.UpdateAppointmentRequest{})

	assert.Equal(t, ErrCodeAppointmentNotFound, result.ErrorCode)
}

func TestUpdateInvalidStatus(t *testing.T) {
	env := newTestEnv(t)

	booked := env.svc.Book(context.Background(), env.bookRequest(futureAt(10, 0)))
	require.True(t, booked.Success)

	bogus := model.AppointmentStatus("rescheduled")
	result := env.svc.Update(context.Background(), *booked.AppointmentID, &model.UpdateAppointmentRequest{Status: &bogus})

	assert.Equal(t, ErrCodeInvalidStatus, result.ErrorCode)
}

func TestUpdateTimeChangeRevalidates(t *testing.T) {
	env := newTestEnv(t)
	tenAM := futureAt(10, 0)
	elevenAM := futureAt(11, 0)
	noon := futureAt(12, 0)

	first := env.bookRequest(tenAM)
	first.EndTime = &elevenAM
	firstResult := env.svc.Book(context.Background(), first)
	require.True(t, firstResult.Success)

	second := env.bookRequest(elevenAM)
	second.EndTime = &noon
	secondResult := env.svc.Book(context.Background(), second)
	require.True(t, secondResult.Success)

	t.Run("moving into another appointment conflicts", func(t *testing.T) {
		start := futureAt(10, 30)
		end := futureAt(11, 30)
		result := env.svc.Update(context.Background(), *firstResult.AppointmentID, &model.UpdateAppointmentRequest{
			StartTime: &start,
			EndTime:   &end,
		})
		assert.Equal(t, ErrCodeAppointmentConflict, result.ErrorCode)
	})

	t.Run("own interval is excluded from the conflict check", func(t *testing.T) {
		start := futureAt(10, 15)
		end := futureAt(10, 45)
		result := env.svc.Update(context.Background(), *firstResult.AppointmentID, &model.UpdateAppointmentRequest{
			StartTime: &start,
			EndTime:   &end,
		})
		assert.True(t, result.Success, "shrinking within own slot rejected: %s", result.ErrorMessage)
	})

	t.Run("past start rejected", func(t *testing.T) {
		start := time.Now().Add(-time.Hour)
		result := env.svc.Update(context.Background(), *firstResult.AppointmentID, &model.UpdateAppointmentRequest{
			StartTime: &start,
		})
		assert.Equal(t, ErrCodeInvalidTimePast, result.ErrorCode)
	})
}

func TestDeleteRequiresReason(t *testing.T) {
	env := newTestEnv(t)

	booked := env.svc.Book(context.Background(), env.bookRequest(futureAt(10, 0)))
	require.True(t, booked.Success)

	result := env.svc.Delete(context.Background(), *booked.AppointmentID, &model.DeleteAppointmentRequest{Reason: "   "})

	assert.Equal(t, ErrCodeInvalidReason, result.ErrorCode)

	apt, err := env.svc.Get(context.Background(), *booked.AppointmentID)
	require.NoError(t, err)
	assert.Nil(t, apt.DeletedAt)
}

func TestDeleteSoftDeletes(t *testing.T) {
	env := newTestEnv(t)
	tenAM := futureAt(10, 0)

	booked := env.svc.Book(context.Background(), env.bookRequest(tenAM))
	require.True(t, booked.Success)

	result := env.svc.Delete(context.Background(), *booked.AppointmentID, &model.DeleteAppointmentRequest{Reason: "patient moved away"})
	require.True(t, result.Success)

	_, err := env.svc.Get(context.Background(), *booked.AppointmentID)
	assert.Equal(t, repository.ErrNotFound, err)

	// Row stays in storage with the deletion stamped.
	raw := env.appointments.appointments[*booked.AppointmentID]
	require.NotNil(t, raw)
	require.NotNil(t, raw.DeletedAt)
	require.NotNil(t, raw.DeletedReason)
	assert.Equal(t, "patient moved away", *raw.DeletedReason)

	t.Run("deleted appointments no longer conflict", func(t *testing.T) {
		rebook := env.svc.Book(context.Background(), env.bookRequest(tenAM))
		assert.True(t, rebook.Success, "slot still blocked after delete: %s", rebook.ErrorMessage)
	})

	t.Run("deleting twice reports not found", func(t *testing.T) {
		again := env.svc.Delete(context.Background(), *booked.AppointmentID, &model.DeleteAppointmentRequest{Reason: "again"})
		assert.Equal(t, ErrCodeAppointmentNotFound, again.ErrorCode)
	})
}

func TestBookWritesOutboxEvent(t *testing.T) {
	env := newTestEnv(t)

	result := env.svc.Book(context.Background(), env.bookRequest(futureAt(10, 0)))
	require.True(t, result.Success)

	require.Len(t, env.appointments.events, 1)
	assert.Equal(t, model.EventAppointmentCreated, env.appointments.events[0].EventType)
}

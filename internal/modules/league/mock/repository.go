package mock

import (
	context "context"
	reflect "reflect"
	time "time"

	entity "anoa.com/fitquest/internal/entity"
	repository "anoa.com/fitquest/internal/modules/league/repository"
	progression "anoa.com/fitquest/internal/progression"
	uuid "github.com/google/uuid"
	gomock "go.uber.org/mock/gomock"
)

// MockLeagueRepository is a mock of LeagueRepository interface.
type MockLeagueRepository struct {
	ctrl     *gomock.Controller
	recorder *MockLeagueRepositoryMockRecorder
	isgomock struct{}
}

// MockLeagueRepositoryMockRecorder is the mock recorder for MockLeagueRepository.
type MockLeagueRepositoryMockRecorder struct {
	mock *MockLeagueRepository
}

// NewMockLeagueRepository creates a new mock instance.
func NewMockLeagueRepository(ctrl *gomock.Controller) *MockLeagueRepository {
	mock := &MockLeagueRepository{ctrl: ctrl}
	mock.recorder = &MockLeagueRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLeagueRepository) EXPECT() *MockLeagueRepositoryMockRecorder {
	return m.recorder
}

// AddPoints mocks base method.
func (m *MockLeagueRepository) AddPoints(ctx context.Context, memberID uuid.UUID, points int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddPoints", ctx, memberID, points)
	ret0, _ := ret[0].(error)
	return ret0
}

// AddPoints indicates an expected call of AddPoints.
func (mr *MockLeagueRepositoryMockRecorder) AddPoints(ctx, memberID, points any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddPoints", reflect.TypeOf((*MockLeagueRepository)(nil).AddPoints), ctx, memberID, points)
}

// CloseCohort mocks base method.
func (m *MockLeagueRepository) CloseCohort(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CloseCohort", ctx, id, at)
	ret0, _ := ret[0].(error)
	return ret0
}

// CloseCohort indicates an expected call of CloseCohort.
func (mr *MockLeagueRepositoryMockRecorder) CloseCohort(ctx, id, at any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CloseCohort", reflect.TypeOf((*MockLeagueRepository)(nil).CloseCohort), ctx, id, at)
}

// CountMembers mocks base method.
func (m *MockLeagueRepository) CountMembers(ctx context.Context, cohortID uuid.UUID) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountMembers", ctx, cohortID)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountMembers indicates an expected call of CountMembers.
func (mr *MockLeagueRepositoryMockRecorder) CountMembers(ctx, cohortID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountMembers", reflect.TypeOf((*MockLeagueRepository)(nil).CountMembers), ctx, cohortID)
}

// CreateCohort mocks base method.
func (m *MockLeagueRepository) CreateCohort(ctx context.Context, cohort *entity.LeagueCohort) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateCohort", ctx, cohort)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateCohort indicates an expected call of CreateCohort.
func (mr *MockLeagueRepositoryMockRecorder) CreateCohort(ctx, cohort any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateCohort", reflect.TypeOf((*MockLeagueRepository)(nil).CreateCohort), ctx, cohort)
}

// CreateMember mocks base method.
func (m *MockLeagueRepository) CreateMember(ctx context.Context, member *entity.LeagueMember) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateMember", ctx, member)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateMember indicates an expected call of CreateMember.
func (mr *MockLeagueRepositoryMockRecorder) CreateMember(ctx, member any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateMember", reflect.TypeOf((*MockLeagueRepository)(nil).CreateMember), ctx, member)
}

// FindActiveMembership mocks base method.
func (m *MockLeagueRepository) FindActiveMembership(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.LeagueMember, *entity.LeagueCohort, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindActiveMembership", ctx, userID, now)
	ret0, _ := ret[0].(*entity.LeagueMember)
	ret1, _ := ret[1].(*entity.LeagueCohort)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// FindActiveMembership indicates an expected call of FindActiveMembership.
func (mr *MockLeagueRepositoryMockRecorder) FindActiveMembership(ctx, userID, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindActiveMembership", reflect.TypeOf((*MockLeagueRepository)(nil).FindActiveMembership), ctx, userID, now)
}

// FindExpiredCohorts mocks base method.
func (m *MockLeagueRepository) FindExpiredCohorts(ctx context.Context, now time.Time, limit int) ([]entity.LeagueCohort, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindExpiredCohorts", ctx, now, limit)
	ret0, _ := ret[0].([]entity.LeagueCohort)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindExpiredCohorts indicates an expected call of FindExpiredCohorts.
func (mr *MockLeagueRepositoryMockRecorder) FindExpiredCohorts(ctx, now, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindExpiredCohorts", reflect.TypeOf((*MockLeagueRepository)(nil).FindExpiredCohorts), ctx, now, limit)
}

// FindOpenCohorts mocks base method.
func (m *MockLeagueRepository) FindOpenCohorts(ctx context.Context, tier string, now time.Time) ([]progression.CohortOccupancy, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindOpenCohorts", ctx, tier, now)
	ret0, _ := ret[0].([]progression.CohortOccupancy)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindOpenCohorts indicates an expected call of FindOpenCohorts.
func (mr *MockLeagueRepositoryMockRecorder) FindOpenCohorts(ctx, tier, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindOpenCohorts", reflect.TypeOf((*MockLeagueRepository)(nil).FindOpenCohorts), ctx, tier, now)
}

// ListMembers mocks base method.
func (m *MockLeagueRepository) ListMembers(ctx context.Context, cohortID uuid.UUID) ([]entity.LeagueMember, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListMembers", ctx, cohortID)
	ret0, _ := ret[0].([]entity.LeagueMember)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListMembers indicates an expected call of ListMembers.
func (mr *MockLeagueRepositoryMockRecorder) ListMembers(ctx, cohortID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListMembers", reflect.TypeOf((*MockLeagueRepository)(nil).ListMembers), ctx, cohortID)
}

// LockCohort mocks base method.
func (m *MockLeagueRepository) LockCohort(ctx context.Context, id uuid.UUID) (*entity.LeagueCohort, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LockCohort", ctx, id)
	ret0, _ := ret[0].(*entity.LeagueCohort)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LockCohort indicates an expected call of LockCohort.
func (mr *MockLeagueRepositoryMockRecorder) LockCohort(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LockCohort", reflect.TypeOf((*MockLeagueRepository)(nil).LockCohort), ctx, id)
}

// LockUser mocks base method.
func (m *MockLeagueRepository) LockUser(ctx context.Context, userID uuid.UUID) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LockUser", ctx, userID)
	ret0, _ := ret[0].(error)
	return ret0
}

// LockUser indicates an expected call of LockUser.
func (mr *MockLeagueRepositoryMockRecorder) LockUser(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LockUser", reflect.TypeOf((*MockLeagueRepository)(nil).LockUser), ctx, userID)
}

// Transaction mocks base method.
func (m *MockLeagueRepository) Transaction(ctx context.Context, fn func(repository.LeagueRepository) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Transaction", ctx, fn)
	ret0, _ := ret[0].(error)
	return ret0
}

// Transaction indicates an expected call of Transaction.
func (mr *MockLeagueRepositoryMockRecorder) Transaction(ctx, fn any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Transaction", reflect.TypeOf((*MockLeagueRepository)(nil).Transaction), ctx, fn)
}

// UpdatePositions mocks base method.
func (m *MockLeagueRepository) UpdatePositions(ctx context.Context, members []entity.LeagueMember) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdatePositions", ctx, members)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdatePositions indicates an expected call of UpdatePositions.
func (mr *MockLeagueRepositoryMockRecorder) UpdatePositions(ctx, members any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdatePositions", reflect.TypeOf((*MockLeagueRepository)(nil).UpdatePositions), ctx, members)
}

package mock

import (
	context "context"
	reflect "reflect"

	entity "anoa.com/fitquest/internal/entity"
	repository "anoa.com/fitquest/internal/modules/progression/repository"
	uuid "github.com/google/uuid"
	gomock "go.uber.org/mock/gomock"
)

// MockProgressionRepository is a mock of ProgressionRepository interface.
type MockProgressionRepository struct {
	ctrl     *gomock.Controller
	recorder *MockProgressionRepositoryMockRecorder
	isgomock struct{}
}

// MockProgressionRepositoryMockRecorder is the mock recorder for MockProgressionRepository.
type MockProgressionRepositoryMockRecorder struct {
	mock *MockProgressionRepository
}

// NewMockProgressionRepository creates a new mock instance.
func NewMockProgressionRepository(ctrl *gomock.Controller) *MockProgressionRepository {
	mock := &MockProgressionRepository{ctrl: ctrl}
	mock.recorder = &MockProgressionRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockProgressionRepository) EXPECT() *MockProgressionRepositoryMockRecorder {
	return m.recorder
}

// CreateStats mocks base method.
func (m *MockProgressionRepository) CreateStats(ctx context.Context, stats *entity.UserStats) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateStats", ctx, stats)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateStats indicates an expected call of CreateStats.
func (mr *MockProgressionRepositoryMockRecorder) CreateStats(ctx, stats any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateStats", reflect.TypeOf((*MockProgressionRepository)(nil).CreateStats), ctx, stats)
}

// CreateXPLogs mocks base method.
func (m *MockProgressionRepository) CreateXPLogs(ctx context.Context, logs []entity.XPLog) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateXPLogs", ctx, logs)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateXPLogs indicates an expected call of CreateXPLogs.
func (mr *MockProgressionRepositoryMockRecorder) CreateXPLogs(ctx, logs any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateXPLogs", reflect.TypeOf((*MockProgressionRepository)(nil).CreateXPLogs), ctx, logs)
}

// GetStats mocks base method.
func (m *MockProgressionRepository) GetStats(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetStats", ctx, userID)
	ret0, _ := ret[0].(*entity.UserStats)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetStats indicates an expected call of GetStats.
func (mr *MockProgressionRepositoryMockRecorder) GetStats(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetStats", reflect.TypeOf((*MockProgressionRepository)(nil).GetStats), ctx, userID)
}

// GetStatsForUpdate mocks base method.
func (m *MockProgressionRepository) GetStatsForUpdate(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetStatsForUpdate", ctx, userID)
	ret0, _ := ret[0].(*entity.UserStats)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetStatsForUpdate indicates an expected call of GetStatsForUpdate.
func (mr *MockProgressionRepositoryMockRecorder) GetStatsForUpdate(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetStatsForUpdate", reflect.TypeOf((*MockProgressionRepository)(nil).GetStatsForUpdate), ctx, userID)
}

// InsertUserAchievements mocks base method.
func (m *MockProgressionRepository) InsertUserAchievements(ctx context.Context, records []entity.UserAchievement) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InsertUserAchievements", ctx, records)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// InsertUserAchievements indicates an expected call of InsertUserAchievements.
func (mr *MockProgressionRepositoryMockRecorder) InsertUserAchievements(ctx, records any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InsertUserAchievements", reflect.TypeOf((*MockProgressionRepository)(nil).InsertUserAchievements), ctx, records)
}

// ListActiveStreaks mocks base method.
func (m *MockProgressionRepository) ListActiveStreaks(ctx context.Context, afterUserID uuid.UUID, limit int) ([]entity.UserStats, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListActiveStreaks", ctx, afterUserID, limit)
	ret0, _ := ret[0].([]entity.UserStats)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListActiveStreaks indicates an expected call of ListActiveStreaks.
func (mr *MockProgressionRepositoryMockRecorder) ListActiveStreaks(ctx, afterUserID, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListActiveStreaks", reflect.TypeOf((*MockProgressionRepository)(nil).ListActiveStreaks), ctx, afterUserID, limit)
}

// ListUnlockedIDs mocks base method.
func (m *MockProgressionRepository) ListUnlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListUnlockedIDs", ctx, userID)
	ret0, _ := ret[0].([]uuid.UUID)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListUnlockedIDs indicates an expected call of ListUnlockedIDs.
func (mr *MockProgressionRepositoryMockRecorder) ListUnlockedIDs(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListUnlockedIDs", reflect.TypeOf((*MockProgressionRepository)(nil).ListUnlockedIDs), ctx, userID)
}

// SaveStats mocks base method.
func (m *MockProgressionRepository) SaveStats(ctx context.Context, stats *entity.UserStats) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveStats", ctx, stats)
	ret0, _ := ret[0].(error)
	return ret0
}

// SaveStats indicates an expected call of SaveStats.
func (mr *MockProgressionRepositoryMockRecorder) SaveStats(ctx, stats any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveStats", reflect.TypeOf((*MockProgressionRepository)(nil).SaveStats), ctx, stats)
}

// Transaction mocks base method.
func (m *MockProgressionRepository) Transaction(ctx context.Context, fn func(repository.ProgressionRepository) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Transaction", ctx, fn)
	ret0, _ := ret[0].(error)
	return ret0
}

// Transaction indicates an expected call of Transaction.
func (mr *MockProgressionRepositoryMockRecorder) Transaction(ctx, fn any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Transaction", reflect.TypeOf((*MockProgressionRepository)(nil).Transaction), ctx, fn)
}

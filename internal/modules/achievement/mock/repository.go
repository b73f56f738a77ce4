package mock

import (
	context "context"
	reflect "reflect"

	entity "anoa.com/fitquest/internal/entity"
	uuid "github.com/google/uuid"
	gomock "go.uber.org/mock/gomock"
)

// MockAchievementRepository is a mock of AchievementRepository interface.
type MockAchievementRepository struct {
	ctrl     *gomock.Controller
	recorder *MockAchievementRepositoryMockRecorder
	isgomock struct{}
}

// MockAchievementRepositoryMockRecorder is the mock recorder for MockAchievementRepository.
type MockAchievementRepositoryMockRecorder struct {
	mock *MockAchievementRepository
}

// NewMockAchievementRepository creates a new mock instance.
func NewMockAchievementRepository(ctrl *gomock.Controller) *MockAchievementRepository {
	mock := &MockAchievementRepository{ctrl: ctrl}
	mock.recorder = &MockAchievementRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAchievementRepository) EXPECT() *MockAchievementRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockAchievementRepository) Create(ctx context.Context, achievement *entity.Achievement) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, achievement)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockAchievementRepositoryMockRecorder) Create(ctx, achievement any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockAchievementRepository)(nil).Create), ctx, achievement)
}

// CreateIfMissing mocks base method.
func (m *MockAchievementRepository) CreateIfMissing(ctx context.Context, achievement *entity.Achievement) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateIfMissing", ctx, achievement)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateIfMissing indicates an expected call of CreateIfMissing.
func (mr *MockAchievementRepositoryMockRecorder) CreateIfMissing(ctx, achievement any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateIfMissing", reflect.TypeOf((*MockAchievementRepository)(nil).CreateIfMissing), ctx, achievement)
}

// FindAll mocks base method.
func (m *MockAchievementRepository) FindAll(ctx context.Context) ([]entity.Achievement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindAll", ctx)
	ret0, _ := ret[0].([]entity.Achievement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindAll indicates an expected call of FindAll.
func (mr *MockAchievementRepositoryMockRecorder) FindAll(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindAll", reflect.TypeOf((*MockAchievementRepository)(nil).FindAll), ctx)
}

// FindByName mocks base method.
func (m *MockAchievementRepository) FindByName(ctx context.Context, name string) (*entity.Achievement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindByName", ctx, name)
	ret0, _ := ret[0].(*entity.Achievement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindByName indicates an expected call of FindByName.
func (mr *MockAchievementRepositoryMockRecorder) FindByName(ctx, name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindByName", reflect.TypeOf((*MockAchievementRepository)(nil).FindByName), ctx, name)
}

// FindUnlockedByUser mocks base method.
func (m *MockAchievementRepository) FindUnlockedByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindUnlockedByUser", ctx, userID)
	ret0, _ := ret[0].([]entity.UserAchievement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindUnlockedByUser indicates an expected call of FindUnlockedByUser.
func (mr *MockAchievementRepositoryMockRecorder) FindUnlockedByUser(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindUnlockedByUser", reflect.TypeOf((*MockAchievementRepository)(nil).FindUnlockedByUser), ctx, userID)
}

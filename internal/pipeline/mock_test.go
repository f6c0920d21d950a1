package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) SaveFile(ctx context.Context, f *model.DatasetFile) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockStore) GetFile(ctx context.Context, id string) (*model.DatasetFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DatasetFile), args.Error(1)
}

func (m *mockStore) ListFiles(ctx context.Context) ([]model.DatasetFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DatasetFile), args.Error(1)
}

func (m *mockStore) DeleteFile(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) AssignFile(ctx context.Context, id string, role model.DatasetRole) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockStore) UnassignFile(ctx context.Context, id string, role model.DatasetRole) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockStore) ActiveFile(ctx context.Context, role model.DatasetRole) (*model.DatasetFile, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DatasetFile), args.Error(1)
}

func (m *mockStore) SaveSelection(ctx context.Context, r *model.SelectionRecord) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) ListSelections(ctx context.Context, limit int) ([]model.SelectionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SelectionRecord), args.Error(1)
}

func (m *mockStore) CreateOrder(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockStore) ListOrders(ctx context.Context, filter store.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockStore) SaveProblem(ctx context.Context, p *model.ProblemReport) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) ListProblems(ctx context.Context, limit int) ([]model.ProblemReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProblemReport), args.Error(1)
}

func (m *mockStore) Statistics(ctx context.Context, since time.Time) (*model.Statistics, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Statistics), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

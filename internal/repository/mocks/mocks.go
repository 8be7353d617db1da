package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"flowd/internal/domain/task"
)

// ItemRepository is a mock for task.ItemRepository.
type ItemRepository struct {
	mock.Mock
}

func (m *ItemRepository) Insert(ctx context.Context, item *task.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *ItemRepository) Get(ctx context.Context, id string) (*task.Item, error) {
	args := m.Called(ctx, id)
	if item, ok := args.Get(0).(*task.Item); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) Update(ctx context.Context, item *task.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *ItemRepository) List(ctx context.Context, opts task.ListOptions) ([]*task.Item, error) {
	args := m.Called(ctx, opts)
	if items, ok := args.Get(0).([]*task.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

// TagUsage is a mock for task.TagUsage.
type TagUsage struct {
	mock.Mock
}

func (m *TagUsage) Names(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if names, ok := args.Get(0).([]string); ok {
		return names, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TagUsage) IncrementUsage(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

package mocks

import (
	"context"
	"time"

	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, records []activity.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *ActivityRepository) ReadAll(ctx context.Context) ([]activity.Record, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]activity.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Latest(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if latest, ok := args.Get(0).(map[string]int64); ok {
		return latest, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Record, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) ListBefore(ctx context.Context, cutoff time.Time) ([]activity.Record, error) {
	args := m.Called(ctx, cutoff)
	if list, ok := args.Get(0).([]activity.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// ActivitySource is a mock for project.ActivitySource.
type ActivitySource struct {
	mock.Mock
}

func (m *ActivitySource) LatestActivity(ctx context.Context) map[string]int64 {
	args := m.Called(ctx)
	if latest, ok := args.Get(0).(map[string]int64); ok {
		return latest
	}
	return nil
}

// GitProbe is a mock for project.GitProbe.
type GitProbe struct {
	mock.Mock
}

func (m *GitProbe) ProbeForDiscovery(ctx context.Context, dir string) gitprobe.Status {
	args := m.Called(ctx, dir)
	return args.Get(0).(gitprobe.Status)
}

func (m *GitProbe) ProbeForDetail(ctx context.Context, dir string) *gitprobe.Status {
	args := m.Called(ctx, dir)
	if st, ok := args.Get(0).(*gitprobe.Status); ok {
		return st
	}
	return nil
}

// Notifier is a mock for activity.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) ProjectsUpdated(ctx context.Context) {
	m.Called(ctx)
}

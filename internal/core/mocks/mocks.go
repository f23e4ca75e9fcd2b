package mocks

import (
	"context"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

var _ ports.TicketRepository = (*MockTicketRepository)(nil)

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) List(ctx context.Context) ([]*domain.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Ticket) *domain.Ticket); ok {
		return fn(ctx, ticket), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, id uuid.UUID, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error) {
	args := m.Called(ctx, id, patch, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TicketMessage), args.Error(1)
}

func (m *MockTicketRepository) CreateMessage(ctx context.Context, message *domain.TicketMessage) (*domain.TicketMessage, error) {
	args := m.Called(ctx, message)
	if fn, ok := args.Get(0).(func(context.Context, *domain.TicketMessage) *domain.TicketMessage); ok {
		return fn(ctx, message), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketMessage), args.Error(1)
}

// MockTicketAnalyticsRepository is a mock implementation of ports.TicketAnalyticsRepository
type MockTicketAnalyticsRepository struct {
	mock.Mock
}

var _ ports.TicketAnalyticsRepository = (*MockTicketAnalyticsRepository)(nil)

func NewMockTicketAnalyticsRepository() *MockTicketAnalyticsRepository {
	return &MockTicketAnalyticsRepository{}
}

func (m *MockTicketAnalyticsRepository) CountByDayAndStatus(ctx context.Context, from, to time.Time) ([]domain.DailyStatusCount, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyStatusCount), args.Error(1)
}

// MockTopicRepository is a mock implementation of ports.TopicRepository
type MockTopicRepository struct {
	mock.Mock
}

var _ ports.TopicRepository = (*MockTopicRepository)(nil)

func NewMockTopicRepository() *MockTopicRepository {
	return &MockTopicRepository{}
}

func (m *MockTopicRepository) List(ctx context.Context) ([]*domain.Topic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Topic), args.Error(1)
}

func (m *MockTopicRepository) Create(ctx context.Context, topic *domain.Topic) (*domain.Topic, error) {
	args := m.Called(ctx, topic)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Topic) *domain.Topic); ok {
		return fn(ctx, topic), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Topic), args.Error(1)
}

func (m *MockTopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Topic), args.Error(1)
}

// MockSettingsRepository is a mock implementation of ports.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

var _ ports.SettingsRepository = (*MockSettingsRepository)(nil)

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{}
}

func (m *MockSettingsRepository) GetOrCreate(ctx context.Context, defaults domain.StaffSettings) (*domain.StaffSettings, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffSettings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings *domain.StaffSettings) (*domain.StaffSettings, error) {
	args := m.Called(ctx, settings)
	if fn, ok := args.Get(0).(func(context.Context, *domain.StaffSettings) *domain.StaffSettings); ok {
		return fn(ctx, settings), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffSettings), args.Error(1)
}

// MockHealthChecker is a mock implementation of ports.HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func NewMockHealthChecker() *MockHealthChecker {
	return &MockHealthChecker{}
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTicketService is a mock implementation of ports.TicketService
type MockTicketService struct {
	mock.Mock
}

var _ ports.TicketService = (*MockTicketService)(nil)

func NewMockTicketService() *MockTicketService {
	return &MockTicketService{}
}

func (m *MockTicketService) ListTickets(ctx context.Context) ([]*domain.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) UpdateTicket(ctx context.Context, id uuid.UUID, patch domain.TicketPatch) (*domain.Ticket, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TicketMessage), args.Error(1)
}

func (m *MockTicketService) CreateMessage(ctx context.Context, params ports.CreateMessageParams) (*domain.TicketMessage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketMessage), args.Error(1)
}

// MockTopicService is a mock implementation of ports.TopicService
type MockTopicService struct {
	mock.Mock
}

var _ ports.TopicService = (*MockTopicService)(nil)

func NewMockTopicService() *MockTopicService {
	return &MockTopicService{}
}

func (m *MockTopicService) ListTopics(ctx context.Context) ([]*domain.Topic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Topic), args.Error(1)
}

func (m *MockTopicService) CreateTopic(ctx context.Context, params ports.CreateTopicParams) (*domain.Topic, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Topic), args.Error(1)
}

// MockAnalyticsService is a mock implementation of ports.AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

var _ ports.AnalyticsService = (*MockAnalyticsService)(nil)

func NewMockAnalyticsService() *MockAnalyticsService {
	return &MockAnalyticsService{}
}

func (m *MockAnalyticsService) StatusSeries(ctx context.Context, days int) (*domain.StatusSeries, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusSeries), args.Error(1)
}

// MockSettingsService is a mock implementation of ports.SettingsService
type MockSettingsService struct {
	mock.Mock
}

var _ ports.SettingsService = (*MockSettingsService)(nil)

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{}
}

func (m *MockSettingsService) GetSettings(ctx context.Context) (*domain.StaffSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffSettings), args.Error(1)
}

func (m *MockSettingsService) UpdateSettings(ctx context.Context, params ports.UpdateSettingsParams) (*domain.StaffSettings, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffSettings), args.Error(1)
}

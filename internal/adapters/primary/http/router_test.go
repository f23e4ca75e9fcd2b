package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wsAdapter "github.com/gamemod/support-desk/internal/adapters/primary/websocket"
	"github.com/gamemod/support-desk/internal/auth"
	"github.com/gamemod/support-desk/internal/config"
	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/mocks"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAdminPassword = "correct-horse-battery"
	testTokenSecret   = "a-token-secret-that-is-long-enough"
)

type testEnv struct {
	router    *Router
	tickets   *mocks.MockTicketService
	topics    *mocks.MockTopicService
	analytics *mocks.MockAnalyticsService
	settings  *mocks.MockSettingsService
	health    *mocks.MockHealthChecker
	tokens    *auth.TokenManager
	hub       *wsAdapter.Hub
}

func testConfig() *config.Config {
	return &config.Config{
		Storage:   config.StorageConfig{Backend: config.BackendPostgres},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		WebSocket: config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024},
		App:       config.AppConfig{Name: "support-desk", Version: "test", Environment: "test"},
	}
}

func newTestEnv(t *testing.T, adminKey *auth.AdminKey) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		tickets:   mocks.NewMockTicketService(),
		topics:    mocks.NewMockTopicService(),
		analytics: mocks.NewMockAnalyticsService(),
		settings:  mocks.NewMockSettingsService(),
		health:    mocks.NewMockHealthChecker(),
		tokens:    auth.NewTokenManager(testTokenSecret, time.Hour, "support-desk"),
		hub:       wsAdapter.NewHub(logger),
	}

	env.router = NewRouter(RouterDeps{
		Config:    testConfig(),
		Logger:    logger,
		Tickets:   env.tickets,
		Topics:    env.topics,
		Analytics: env.analytics,
		Settings:  env.settings,
		Health:    env.health,
		Hub:       env.hub,
		AdminKey:  adminKey,
		Tokens:    env.tokens,
	})
	t.Cleanup(env.router.Close)

	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&out))
	return out
}

func sampleTicket() *domain.Ticket {
	topicID := uuid.New()
	created := time.Date(2026, 10, 16, 9, 30, 0, 123_000_000, time.UTC)
	return &domain.Ticket{
		ID:        uuid.New(),
		Title:     "Cannot join server",
		Body:      "Timeout on connect",
		PlayerID:  "player-7",
		Status:    domain.StatusOpen,
		TopicID:   &topicID,
		Topic:     &domain.TopicRef{ID: topicID, Name: "Connectivity"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestListTickets(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

	orphan := sampleTicket()
	orphan.Topic = nil
	orphan.Status = domain.TicketStatus("escalated")
	env.tickets.On("ListTickets", mock.Anything).Return([]*domain.Ticket{sampleTicket(), orphan}, nil)

	recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets", "", nil)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var body struct {
		Tickets []map[string]any `json:"tickets"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	require.Len(t, body.Tickets, 2)

	assert.Equal(t, "2026-10-16T09:30:00.123Z", body.Tickets[0]["createdAt"])
	assert.Equal(t, "Connectivity", body.Tickets[0]["topic"].(map[string]any)["name"])
	assert.Nil(t, body.Tickets[0]["organizationId"])

	assert.Contains(t, body.Tickets[1], "topic")
	assert.Nil(t, body.Tickets[1]["topic"])
	assert.Equal(t, "open", body.Tickets[1]["status"])
}

func TestListTickets_BackendFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
	env.tickets.On("ListTickets", mock.Anything).Return(nil, errors.New("connection refused"))

	recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets", "", nil)
	require.Equal(t, stdhttp.StatusInternalServerError, recorder.Code)

	body := decode[ErrorResponse](t, recorder)
	assert.Equal(t, "An unexpected error occurred", body.Error)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
}

func TestCreateTicket(t *testing.T) {
	topicID := uuid.New()
	orgID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		created := sampleTicket()

		env.tickets.On("CreateTicket", mock.Anything, mock.MatchedBy(func(p ports.CreateTicketParams) bool {
			return p.TopicID == topicID && p.OrganizationID != nil && *p.OrganizationID == orgID && p.PlayerID == "player-7"
		})).Return(created, nil)

		payload := `{"title":"Cannot join server","body":"Timeout","playerId":"player-7","topicId":"` +
			topicID.String() + `","organizationId":"` + orgID.String() + `"}`
		recorder := env.do(t, stdhttp.MethodPost, "/v1/tickets", payload, nil)
		require.Equal(t, stdhttp.StatusCreated, recorder.Code)

		var body struct {
			Ticket map[string]any `json:"ticket"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		assert.Equal(t, created.ID.String(), body.Ticket["id"])
		env.tickets.AssertExpectations(t)
	})

	t.Run("invalid fields", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/tickets", `{"title":"","playerId":"p","topicId":"nope"}`, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

		body := decode[ValidationErrorResponse](t, recorder)
		assert.Equal(t, "VALIDATION_ERROR", body.Code)
		assert.Equal(t, []string{"Title is required"}, body.Fields["title"])
		assert.Equal(t, []string{"Body is required"}, body.Fields["body"])
		assert.Equal(t, []string{"Topic id must be a UUID"}, body.Fields["topicId"])
		env.tickets.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/tickets", `{"title":`, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Equal(t, "BAD_REQUEST", decode[ErrorResponse](t, recorder).Code)
	})

	t.Run("unknown topic", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.tickets.On("CreateTicket", mock.Anything, mock.Anything).Return(nil, apperrors.ErrTopicNotFound)

		payload := `{"title":"t","body":"b","playerId":"p","topicId":"` + topicID.String() + `"}`
		recorder := env.do(t, stdhttp.MethodPost, "/v1/tickets", payload, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Topic not found", decode[ErrorResponse](t, recorder).Error)
	})
}

func TestGetTicket(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

	recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets/123", "", nil)
	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	assert.Equal(t, []string{"Ticket id must be a UUID"}, decode[ValidationErrorResponse](t, recorder).Fields["id"])

	missing := uuid.New()
	env.tickets.On("GetTicket", mock.Anything, missing).Return(nil, apperrors.ErrTicketNotFound)

	recorder = env.do(t, stdhttp.MethodGet, "/v1/tickets/"+missing.String(), "", nil)
	require.Equal(t, stdhttp.StatusNotFound, recorder.Code)
	assert.Equal(t, "Ticket not found", decode[ErrorResponse](t, recorder).Error)
}

func TestUpdateTicket(t *testing.T) {
	ticketID := uuid.New()

	t.Run("applies fields", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		updated := sampleTicket()
		updated.Status = domain.StatusResolved

		env.tickets.On("UpdateTicket", mock.Anything, ticketID, mock.MatchedBy(func(p domain.TicketPatch) bool {
			return p.Status != nil && *p.Status == domain.StatusResolved && p.Title == nil && p.TopicID == nil
		})).Return(updated, nil)

		recorder := env.do(t, stdhttp.MethodPatch, "/v1/tickets/"+ticketID.String(), `{"status":"resolved"}`, nil)
		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		env.tickets.AssertExpectations(t)
	})

	t.Run("empty patch", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.tickets.On("UpdateTicket", mock.Anything, ticketID, domain.TicketPatch{}).Return(nil, apperrors.ErrEmptyPatch)

		recorder := env.do(t, stdhttp.MethodPatch, "/v1/tickets/"+ticketID.String(), `{}`, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode[ErrorResponse](t, recorder).Code)
	})

	t.Run("invalid status never reaches the service", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPatch, "/v1/tickets/"+ticketID.String(), `{"status":"escalated","title":""}`, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

		fields := decode[ValidationErrorResponse](t, recorder).Fields
		assert.Contains(t, fields, "status")
		assert.Contains(t, fields, "title")
		env.tickets.AssertNotCalled(t, "UpdateTicket", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTicketMessages(t *testing.T) {
	ticketID := uuid.New()

	t.Run("author defaults to agent", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.tickets.On("CreateMessage", mock.Anything, ports.CreateMessageParams{
			TicketID:   ticketID,
			Body:       "Looking into it",
			AuthorType: domain.AuthorAgent,
		}).Return(&domain.TicketMessage{
			ID:         uuid.New(),
			TicketID:   ticketID,
			AuthorType: domain.AuthorAgent,
			Body:       "Looking into it",
			CreatedAt:  time.Now(),
		}, nil)

		recorder := env.do(t, stdhttp.MethodPost, "/v1/tickets/"+ticketID.String()+"/messages", `{"body":"Looking into it"}`, nil)
		require.Equal(t, stdhttp.StatusCreated, recorder.Code)

		var body struct {
			Message map[string]any `json:"message"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		assert.Equal(t, "agent", body.Message["authorType"])
		assert.Equal(t, ticketID.String(), body.Message["ticketId"])
	})

	t.Run("bad author type", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/tickets/"+ticketID.String()+"/messages", `{"body":"hi","authorType":"bot"}`, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Contains(t, decode[ValidationErrorResponse](t, recorder).Fields, "authorType")
	})

	t.Run("list for a missing ticket", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.tickets.On("ListMessages", mock.Anything, ticketID).Return(nil, apperrors.ErrTicketNotFound)

		recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets/"+ticketID.String()+"/messages", "", nil)
		assert.Equal(t, stdhttp.StatusNotFound, recorder.Code)
	})
}

func TestStatusAnalytics(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		series, err := domain.NewStatusSeries(domain.DefaultAnalyticsDays, time.Now())
		require.NoError(t, err)
		env.analytics.On("StatusSeries", mock.Anything, domain.DefaultAnalyticsDays).Return(series, nil)

		recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets/analytics/status", "", nil)
		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var body struct {
			Statuses []string `json:"statuses"`
			Series   []struct {
				Date     string           `json:"date"`
				Statuses map[string]int64 `json:"statuses"`
			} `json:"series"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		assert.Equal(t, []string{"open", "in_progress", "resolved", "closed"}, body.Statuses)
		assert.Len(t, body.Series, domain.DefaultAnalyticsDays)
		assert.Len(t, body.Series[0].Statuses, 4)
	})

	t.Run("non-integer days", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets/analytics/status?days=week", "", nil)
		assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})

	t.Run("out of range", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.analytics.On("StatusSeries", mock.Anything, 91).Return(nil, apperrors.ErrInvalidWindow)

		recorder := env.do(t, stdhttp.MethodGet, "/v1/tickets/analytics/status?days=91", "", nil)
		assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})
}

func TestCreateTopic_AdminGate(t *testing.T) {
	topic := &domain.Topic{ID: uuid.New(), Name: "Billing", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	payload := `{"name":"Billing"}`

	t.Run("missing key", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, nil)
		require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "Staff credentials required", decode[ErrorResponse](t, recorder).Error)
	})

	t.Run("wrong key", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, map[string]string{"x-admin-key": "guess"})
		assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
	})

	t.Run("admin key", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.topics.On("CreateTopic", mock.Anything, ports.CreateTopicParams{Name: "Billing"}).Return(topic, nil)

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, map[string]string{"x-admin-key": testAdminPassword})
		require.Equal(t, stdhttp.StatusCreated, recorder.Code)

		var body struct {
			Topic map[string]any `json:"topic"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		assert.Equal(t, "Billing", body.Topic["name"])
		assert.Nil(t, body.Topic["description"])
	})

	t.Run("staff bearer token", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.topics.On("CreateTopic", mock.Anything, mock.Anything).Return(topic, nil)

		token, _, err := env.tokens.GenerateToken("vega")
		require.NoError(t, err)

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, stdhttp.StatusCreated, recorder.Code)
	})

	t.Run("forged bearer token", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		forged := auth.NewTokenManager("another-secret-entirely-different", time.Hour, "support-desk")
		token, _, err := forged.GenerateToken("mallory")
		require.NoError(t, err)

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.topics.On("CreateTopic", mock.Anything, mock.Anything).Return(nil, apperrors.ErrTopicExists)

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, map[string]string{"x-admin-key": testAdminPassword})
		require.Equal(t, stdhttp.StatusConflict, recorder.Code)
		assert.Equal(t, "Topic already exists", decode[ErrorResponse](t, recorder).Error)
	})

	t.Run("no secret configured", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey("", ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", payload, map[string]string{"x-admin-key": "anything"})
		require.Equal(t, stdhttp.StatusInternalServerError, recorder.Code)
		assert.Equal(t, "NOT_CONFIGURED", decode[ErrorResponse](t, recorder).Code)
	})

	t.Run("description too long", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		long := strings.Repeat("x", domain.MaxTopicDescriptionLength+1)

		recorder := env.do(t, stdhttp.MethodPost, "/v1/topics", `{"name":"Bugs","description":"`+long+`"}`,
			map[string]string{"x-admin-key": testAdminPassword})
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Contains(t, decode[ValidationErrorResponse](t, recorder).Fields, "description")
	})
}

func TestListTopics_IsPublic(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
	env.topics.On("ListTopics", mock.Anything).Return([]*domain.Topic{}, nil)

	recorder := env.do(t, stdhttp.MethodGet, "/v1/topics", "", nil)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"topics":[]}`, recorder.Body.String())
}

func TestStaffSettings(t *testing.T) {
	defaults := domain.DefaultStaffSettings(time.Now())
	fullTheme := `{"primary":"#000","surface":"#111","surfaceMuted":"#222","surfaceSubtle":"#333","backgroundAccentOne":"#444","backgroundAccentTwo":""}`
	key := map[string]string{"x-admin-key": testAdminPassword}

	t.Run("get", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.settings.On("GetSettings", mock.Anything).Return(&defaults, nil)

		recorder := env.do(t, stdhttp.MethodGet, "/v1/staff/settings", "", nil)
		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		assert.Equal(t, "#6366f1", body["theme"]["primary"])
		assert.Equal(t, "NovaWatch", body["site"]["guildName"])
		assert.Equal(t, true, body["site"]["showGuildCard"])
	})

	t.Run("theme only", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.settings.On("UpdateSettings", mock.Anything, mock.MatchedBy(func(p ports.UpdateSettingsParams) bool {
			return p.Site == nil && p.Theme != nil && p.Theme.Primary == "#000" && p.Theme.BackgroundAccentTwo == ""
		})).Return(&defaults, nil)

		recorder := env.do(t, stdhttp.MethodPut, "/v1/staff/settings", `{"theme":`+fullTheme+`}`, key)
		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		env.settings.AssertExpectations(t)
	})

	t.Run("partial sub-object", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPut, "/v1/staff/settings", `{"site":{"brandLabel":"X"}}`, key)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

		fields := decode[ValidationErrorResponse](t, recorder).Fields
		assert.Contains(t, fields, "site.showGuildCard")
		assert.NotContains(t, fields, "site.brandLabel")
	})

	t.Run("empty update", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
		env.settings.On("UpdateSettings", mock.Anything, ports.UpdateSettingsParams{}).Return(nil, apperrors.ErrEmptySettingsUpdate)

		recorder := env.do(t, stdhttp.MethodPut, "/v1/staff/settings", `{}`, key)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Provide theme and/or site settings to update.", decode[ErrorResponse](t, recorder).Error)
	})

	t.Run("requires admin", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPut, "/v1/staff/settings", `{"theme":`+fullTheme+`}`, nil)
		assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
		env.settings.AssertNotCalled(t, "UpdateSettings", mock.Anything, mock.Anything)
	})
}

func TestStaffSession(t *testing.T) {
	t.Run("issues a token", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/staff/session",
			`{"username":"vega","adminKey":"`+testAdminPassword+`"}`, nil)
		require.Equal(t, stdhttp.StatusCreated, recorder.Code)

		body := decode[SessionResponse](t, recorder)
		assert.Equal(t, "vega", body.Username)
		assert.NotEmpty(t, body.ExpiresAt)

		claims, err := env.tokens.ValidateToken(body.Token)
		require.NoError(t, err)
		assert.Equal(t, "vega", claims.Username())
	})

	t.Run("wrong key", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/staff/session", `{"username":"vega","adminKey":"nope"}`, nil)
		assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

		recorder := env.do(t, stdhttp.MethodPost, "/v1/staff/session", `{}`, nil)
		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Len(t, decode[ValidationErrorResponse](t, recorder).Fields, 2)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

	recorder := env.do(t, stdhttp.MethodGet, "/health", "", nil)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	body := decode[HealthResponse](t, recorder)
	assert.Equal(t, "ok", body.Status)
	_, err := time.Parse("2006-01-02T15:04:05.000Z", body.Timestamp)
	assert.NoError(t, err)

	env.health.On("Ping", mock.Anything).Return(errors.New("pool closed")).Once()
	recorder = env.do(t, stdhttp.MethodGet, "/health/ready", "", nil)
	require.Equal(t, stdhttp.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "postgres", decode[HealthResponse](t, recorder).Checks["storage"].Backend)

	env.health.On("Ping", mock.Anything).Return(nil).Once()
	recorder = env.do(t, stdhttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, stdhttp.StatusOK, recorder.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))
	env.topics.On("ListTopics", mock.Anything).Return([]*domain.Topic{}, nil)

	env.do(t, stdhttp.MethodGet, "/v1/topics", "", nil)
	recorder := env.do(t, stdhttp.MethodGet, "/metrics", "", nil)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `route="/v1/topics`)
}

func TestLiveFeed(t *testing.T) {
	env := newTestEnv(t, auth.NewAdminKey(testAdminPassword, ""))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.hub.Run(ctx)

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// A PONG proves the client is registered with the hub
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PING"}`)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PONG"}`, string(frame))

	topic := &domain.Topic{ID: uuid.New(), Name: "Billing", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, env.hub.Broadcast(domain.Event{Type: domain.EventTopicCreated, Payload: topic}))

	_, frame, err = conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(frame), &event))
	assert.Equal(t, "topic.created", event.Type)
	assert.Equal(t, "Billing", event.Payload["name"])
}

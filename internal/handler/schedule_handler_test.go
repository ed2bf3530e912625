package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/lock"
	"github.com/stemsi/cohortsched-backend/internal/model"
	"github.com/stemsi/cohortsched-backend/internal/notify"
	"github.com/stemsi/cohortsched-backend/internal/repository"
	"github.com/stemsi/cohortsched-backend/internal/response"
	"github.com/stemsi/cohortsched-backend/internal/service"
	"github.com/stemsi/cohortsched-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// stubStore serves a fixed set of sessions for schedule_basic_1_1.
type stubStore struct {
	sessions []model.Session
	err      error
}

func (s *stubStore) ListSessions(_ context.Context, p cohort.Partition) ([]model.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p != "schedule_basic_1_1" {
		return nil, repository.ErrNotFound
	}
	return s.sessions, nil
}

func (s *stubStore) GetSession(context.Context, cohort.Partition, int) (*model.Session, error) {
	return nil, repository.ErrNotFound
}

func (s *stubStore) UpdateSessionFields(context.Context, cohort.Partition, int, model.SessionUpdate) error {
	return s.err
}

func (s *stubStore) DeleteWeek(_ context.Context, _ cohort.Partition, week int) (int64, error) {
	var n int64
	for _, sess := range s.sessions {
		if sess.WeekNumber == week {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) ListRecordedByMentor(context.Context, cohort.Partition, int) ([]model.Session, error) {
	return nil, nil
}

func (s *stubStore) ListRecordedBySubstitute(context.Context, cohort.Partition, int) ([]model.Session, error) {
	return nil, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (lock.Lease, error) { return nil, lock.ErrLocked }

func newTestSession(id, week, number int, day string) model.Session {
	d, _ := model.ParseDate(day)
	return model.Session{ID: id, WeekNumber: week, SessionNumber: number, Date: d, Day: model.WeekdayName(d), MentorID: 1}
}

func setupScheduleRouter(store *stubStore, locker lock.Locker) *gin.Engine {
	log := zerolog.Nop()
	h := NewScheduleHandler(
		service.NewScheduleService(store),
		service.NewWeekService(store, locker, nil, log),
		service.NewRescheduleService(store, nil, nil, notify.PacingPolicy{}, locker, nil, "test", log),
	)
	r := gin.New()
	g := r.Group("/cohorts/:type/:number")
	g.GET("/sessions", h.ListSessions)
	g.DELETE("/weeks/:week", h.DeleteWeek)
	g.POST("/sessions/:id/reschedule", h.RescheduleSession)
	return r
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func twoWeekStore() *stubStore {
	return &stubStore{sessions: []model.Session{
		newTestSession(1, 1, 1, "2024-12-30"),
		newTestSession(2, 1, 2, "2025-01-01"),
		newTestSession(3, 2, 1, "2025-01-06"),
		newTestSession(4, 2, 2, "2025-01-08"),
	}}
}

func TestDeleteWeek_OK(t *testing.T) {
	r := setupScheduleRouter(twoWeekStore(), lock.Nop{})

	w, env := do(r, http.MethodDelete, "/cohorts/basic/1.1/weeks/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, env.Error)

	data := env.Data.(map[string]interface{})
	assert.Equal(t, "schedule_basic_1_1", data["partition"])
	assert.EqualValues(t, 2, data["deleted_count"])
	assert.EqualValues(t, 2, data["updated_count"])
	assert.EqualValues(t, 7, data["days_shifted"])
}

func TestDeleteWeek_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		store  *stubStore
		locker lock.Locker
		path   string
		status int
		code   response.ErrCode
	}{
		{"missing week", twoWeekStore(), lock.Nop{}, "/cohorts/basic/1.1/weeks/9", http.StatusNotFound, response.ErrWeekNotFound},
		{"unknown cohort", twoWeekStore(), lock.Nop{}, "/cohorts/basic/7/weeks/1", http.StatusNotFound, response.ErrWeekNotFound},
		{"bad week", twoWeekStore(), lock.Nop{}, "/cohorts/basic/1.1/weeks/zero", http.StatusBadRequest, response.ErrValidation},
		{"bad cohort type", twoWeekStore(), lock.Nop{}, "/cohorts/b4sic/1.1/weeks/1", http.StatusBadRequest, response.ErrValidation},
		{"busy", twoWeekStore(), busyLocker{}, "/cohorts/basic/1.1/weeks/1", http.StatusConflict, response.ErrPartitionBusy},
		{"storage down", &stubStore{err: errors.New("dial tcp: connection refused")}, lock.Nop{}, "/cohorts/basic/1.1/weeks/1", http.StatusServiceUnavailable, response.ErrStorage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupScheduleRouter(tc.store, tc.locker)
			w, env := do(r, http.MethodDelete, tc.path, "")
			assert.Equal(t, tc.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestListSessions_OK(t *testing.T) {
	r := setupScheduleRouter(twoWeekStore(), lock.Nop{})

	w, env := do(r, http.MethodGet, "/cohorts/Basic/1.1/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := env.Data.(map[string]interface{})
	assert.Equal(t, "Basic 1.1", data["cohort"])
	assert.Len(t, data["sessions"], 4)
}

func TestRescheduleSession_RejectsPayload(t *testing.T) {
	r := setupScheduleRouter(twoWeekStore(), lock.Nop{})

	cases := map[string]string{
		"new_date":    `{"new_date":"06/01/2025","action_type":"postpone","mentor_name":"Kiran"}`,
		"action_type": `{"new_date":"2025-01-06","action_type":"cancel","mentor_name":"Kiran"}`,
		"new_time":    `{"new_date":"2025-01-06","new_time":"25:00","action_type":"prepone","mentor_name":"Kiran"}`,
		"mentor_name": `{"new_date":"2025-01-06","action_type":"prepone"}`,
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			w, env := do(r, http.MethodPost, "/cohorts/basic/1.1/sessions/1/reschedule", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, response.ErrValidation, env.Error.Code)
			assert.Contains(t, env.Error.Fields, field)
		})
	}
}

func TestRescheduleSession_UnknownSession(t *testing.T) {
	r := setupScheduleRouter(twoWeekStore(), lock.Nop{})

	body := `{"new_date":"2025-01-10","action_type":"postpone","mentor_name":"Kiran"}`
	w, env := do(r, http.MethodPost, "/cohorts/basic/1.1/sessions/42/reschedule", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, response.ErrSessionMissing, env.Error.Code)
}

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-planner/internal/persistence/memory"
	"github.com/example/campus-planner/internal/testfixtures"
)

type apiHarness struct {
	t        *testing.T
	echo     *echo.Echo
	services testfixtures.Services
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	factory := testfixtures.NewServiceFactory()
	services, err := factory.Build(memory.New())
	require.NoError(t, err)

	logger := factory.Logger
	e := NewRouter(RouterConfig{
		Owners:     NewOwnerHandler(services.Owners, logger),
		Schedule:   NewScheduleHandler(services.Schedule, logger),
		Attendance: NewAttendanceHandler(services.Attendance, logger),
		Tasks:      NewTaskHandler(services.Tasks, logger),
		Focus:      NewFocusHandler(services.Focus, logger),
		LiveStatus: NewStatusHandler(services.LiveStatus, logger),
		Verifier:   services.Verifier,
		Logger:     logger,
	})
	return &apiHarness{t: t, echo: e, services: services}
}

func (h *apiHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, err := json.Marshal(v)
		require.NoError(h.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}

// signUp registers an owner and logs in, returning the bearer token and owner id.
func (h *apiHarness) signUp(email string) (string, string) {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/v1/owners", "", map[string]any{
		"email":       email,
		"password":    "correct horse",
		"displayName": "Student",
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/v1/sessions", "", map[string]any{
		"email":    email,
		"password": "correct horse",
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())

	var login loginResponse
	decode(h.t, rec, &login)
	require.NotEmpty(h.t, login.Token)
	return login.Token, login.Owner.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func slotBody(day, start, end, title, kind string) map[string]any {
	return map[string]any{
		"weekday":   day,
		"startTime": start,
		"endTime":   end,
		"title":     title,
		"type":      kind,
	}
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)

	t.Run("missing bearer token", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/schedule", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "unauthorized", body.ErrorCode)
	})

	t.Run("invalid bearer token", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/schedule", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "invalid_token", body.ErrorCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		h.signUp("login@example.com")
		rec := h.do(http.MethodPost, "/v1/sessions", "", map[string]any{"email": "login@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "invalid_credentials", body.ErrorCode)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		h.signUp("dup@example.com")
		rec := h.do(http.MethodPost, "/v1/owners", "", map[string]any{
			"email": "DUP@example.com", "password": "another secret", "displayName": "Again",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("registration fields are validated", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/owners", "", map[string]any{"email": "nope", "password": "short", "displayName": "  "})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body errorResponse
		decode(t, rec, &body)
		assert.Equal(t, "validation_failed", body.ErrorCode)
		assert.Contains(t, body.Errors, "email")
		assert.Contains(t, body.Errors, "password")
		assert.Contains(t, body.Errors, "displayName")
	})

	t.Run("profile round trip", func(t *testing.T) {
		token, ownerID := h.signUp("me@example.com")

		rec := h.do(http.MethodPut, "/v1/owners/me", token, map[string]any{"dailyFocusGoalMinutes": 90})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = h.do(http.MethodGet, "/v1/owners/me", token, nil)
		var owner ownerDTO
		decode(t, rec, &owner)
		assert.Equal(t, ownerID, owner.ID)
		assert.Equal(t, 90, owner.DailyFocusGoalMinutes)
	})
}

func TestScheduleRoutes(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	token, _ := h.signUp("schedule@example.com")

	rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("Monday", "09:00", "10:00", "Physics", "academic"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created slotResponse
	decode(t, rec, &created)
	assert.Equal(t, "Physics", created.Slot.Title)
	assert.Equal(t, "lecture", created.Slot.AcademicType)
	assert.Equal(t, 1, created.Slot.AttendanceWeight)
	assert.Empty(t, created.Warnings)

	t.Run("overlaps are reported as warnings", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("monday", "09:30", "11:00", "Chemistry", "academic"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp slotResponse
		decode(t, rec, &resp)
		require.Len(t, resp.Warnings, 1)
		assert.Equal(t, created.Slot.ID, resp.Warnings[0].SlotID)
	})

	t.Run("list filters by weekday", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/schedule?weekday=Monday", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var slots []slotDTO
		decode(t, rec, &slots)
		assert.Len(t, slots, 2)

		rec = h.do(http.MethodGet, "/v1/schedule?weekday=Tuesday", token, nil)
		decode(t, rec, &slots)
		assert.Empty(t, slots)
	})

	t.Run("boundary validation", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("Funday", "9am", "10:00", "", "academic"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body errorResponse
		decode(t, rec, &body)
		assert.Contains(t, body.Errors, "weekday")
		assert.Contains(t, body.Errors, "startTime")
		assert.Contains(t, body.Errors, "title")
	})

	t.Run("end must follow start", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("Monday", "10:00", "09:00", "Backwards", "academic"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body errorResponse
		decode(t, rec, &body)
		assert.Contains(t, body.Errors, "endTime")
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/schedule", token, `{"weekday":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other owners cannot see the slot", func(t *testing.T) {
		other, _ := h.signUp("other@example.com")
		rec := h.do(http.MethodGet, "/v1/schedule/"+created.Slot.ID, other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = h.do(http.MethodDelete, "/v1/schedule/"+created.Slot.ID, other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update and delete", func(t *testing.T) {
		body := slotBody("Monday", "09:00", "10:00", "Physics", "academic")
		body["location"] = "Room 101"
		body["academicType"] = "lab"
		body["attendanceWeight"] = 3
		rec := h.do(http.MethodPut, "/v1/schedule/"+created.Slot.ID+"/", token, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated slotResponse
		decode(t, rec, &updated)
		require.NotNil(t, updated.Slot.Location)
		assert.Equal(t, "Room 101", *updated.Slot.Location)
		assert.Equal(t, 3, updated.Slot.AttendanceWeight)

		rec = h.do(http.MethodDelete, "/v1/schedule/"+created.Slot.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = h.do(http.MethodGet, "/v1/schedule/"+created.Slot.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestScheduleImport(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	token, _ := h.signUp("import@example.com")

	rec := h.do(http.MethodPost, "/v1/schedule/import", token, []map[string]any{
		slotBody("Tuesday", "08:00", "09:00", "Biology", "academic"),
		slotBody("Tuesday", "25:00", "26:00", "Broken", "academic"),
		slotBody("Tuesday", "08:00", "09:00", "Biology", "academic"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp importResponse
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Invalid)
	assert.Equal(t, 1, resp.Conflicts)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "created", resp.Items[0].Result)
	assert.Equal(t, "invalid", resp.Items[1].Result)
	assert.Contains(t, resp.Items[1].Errors, "startTime")
	assert.Equal(t, "conflict", resp.Items[2].Result)
	assert.Equal(t, resp.Items[0].Slot.ID, resp.Items[2].ConflictWith)

	rec = h.do(http.MethodPost, "/v1/schedule/import", token, []map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAttendanceRoutes(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	token, _ := h.signUp("attendance@example.com")

	rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("Monday", "09:00", "10:00", "Physics", "academic"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var slot slotResponse
	decode(t, rec, &slot)

	mark := func(date, status string) *httptest.ResponseRecorder {
		return h.do(http.MethodPost, "/v1/attendance", token, map[string]any{
			"slotId": slot.Slot.ID, "date": date, "status": status,
		})
	}
	require.Equal(t, http.StatusOK, mark("2024-09-02", "absent").Code)
	require.Equal(t, http.StatusOK, mark("2024-09-02", "present").Code)
	require.Equal(t, http.StatusOK, mark("2024-09-09", "absent").Code)

	t.Run("history keeps one record per slot and date", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/attendance?date=2024-09-02", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var records []attendanceRecordDTO
		decode(t, rec, &records)
		require.Len(t, records, 1)
		assert.Equal(t, "present", records[0].Status)
	})

	t.Run("summary", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/attendance/summary", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var summaries []subjectSummaryDTO
		decode(t, rec, &summaries)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Physics", summaries[0].Subject)
		assert.Equal(t, 50, summaries[0].Percentage)
	})

	t.Run("sheet", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/v1/attendance/sheet?from=2024-09-02&to=2024-09-16", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sheet sheetResponse
		decode(t, rec, &sheet)
		require.Len(t, sheet.Entries, 3)
		assert.Equal(t, "present", sheet.Entries[0].Status)
		assert.Equal(t, "absent", sheet.Entries[1].Status)
		assert.Equal(t, "pending", sheet.Entries[2].Status)

		rec = h.do(http.MethodGet, "/v1/attendance/sheet?from=2024-09-02", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("invalid status and unknown slot", func(t *testing.T) {
		assert.Equal(t, http.StatusUnprocessableEntity, mark("2024-09-02", "late").Code)

		rec := h.do(http.MethodPost, "/v1/attendance", token, map[string]any{
			"slotId": "missing", "date": "2024-09-02", "status": "present",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskRoutes(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	token, ownerID := h.signUp("tasks@example.com")

	rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("Monday", "18:00", "19:00", "Gym", "personal"))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("sync materializes personal slots", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/tasks/sync", token, map[string]any{"date": "2024-09-02"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result syncTasksResponse
		decode(t, rec, &result)
		assert.Equal(t, 1, result.Created)

		rec = h.do(http.MethodPost, "/v1/tasks/sync", token, map[string]any{"date": "2024-09-02", "owner": ownerID})
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &result)
		assert.Zero(t, result.Created)
		assert.Zero(t, result.Deleted)

		rec = h.do(http.MethodGet, "/v1/tasks?date=2024-09-02", token, nil)
		var tasks []taskDTO
		decode(t, rec, &tasks)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Gym", tasks[0].Title)
		assert.NotNil(t, tasks[0].OriginSlotID)
	})

	t.Run("syncing another owner is forbidden", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/tasks/sync", token, map[string]any{"date": "2024-09-02", "owner": "someone-else"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("manual task lifecycle", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/tasks", token, map[string]any{
			"title": "Essay", "date": "2024-09-03", "priority": "high",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var task taskDTO
		decode(t, rec, &task)
		assert.Equal(t, "todo", task.Status)
		assert.Nil(t, task.OriginSlotID)

		rec = h.do(http.MethodPut, "/v1/tasks/"+task.ID, token, map[string]any{
			"title": "Essay", "date": "2024-09-03", "status": "done", "priority": "high",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.do(http.MethodGet, "/v1/tasks?status=done", token, nil)
		var done []taskDTO
		decode(t, rec, &done)
		require.Len(t, done, 1)
		assert.Equal(t, task.ID, done[0].ID)

		rec = h.do(http.MethodDelete, "/v1/tasks/"+task.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("task validation", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/v1/tasks", token, map[string]any{"title": "x", "date": "03/09/2024", "status": "blocked"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		decode(t, rec, &body)
		assert.Contains(t, body.Errors, "date")
		assert.Contains(t, body.Errors, "status")
	})
}

func TestFocusRoutes(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	token, _ := h.signUp("focus@example.com")
	start := testfixtures.ReferenceTime()

	rec := h.do(http.MethodPost, "/v1/focus/sessions", token, map[string]any{
		"duration":  25,
		"type":      "focus",
		"startTime": start,
		"endTime":   start.Add(25 * time.Minute),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/v1/focus/sessions", token, map[string]any{
		"duration":  5,
		"type":      "break",
		"startTime": start.Add(25 * time.Minute),
		"endTime":   start.Add(30 * time.Minute),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/v1/focus/today", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var today focusTodayResponse
	decode(t, rec, &today)
	assert.Equal(t, "2024-09-02", today.Date)
	assert.Equal(t, 25, today.TotalMinutes)
	assert.Equal(t, 120, today.DailyGoal)

	rec = h.do(http.MethodGet, "/v1/focus/sessions", token, nil)
	var sessions []focusSessionDTO
	decode(t, rec, &sessions)
	assert.Len(t, sessions, 2)

	rec = h.do(http.MethodPost, "/v1/focus/sessions", token, map[string]any{"duration": 0, "type": "nap"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "duration")
	assert.Contains(t, body.Errors, "type")
	assert.Contains(t, body.Errors, "startTime")
}

func TestLiveStatusRoute(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	token, ownerID := h.signUp("status@example.com")
	viewer, _ := h.signUp("viewer@example.com")

	// The harness clock sits on Monday 08:00 UTC.
	rec := h.do(http.MethodPost, "/v1/schedule", token, slotBody("Monday", "07:30", "09:00", "Physics", "academic"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/v1/live-status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status liveStatusResponse
	decode(t, rec, &status)
	assert.Equal(t, "busy", status.State)
	assert.Equal(t, "In Class: Physics", status.Description)
	require.NotNil(t, status.Until)
	assert.Equal(t, "09:00", *status.Until)

	rec = h.do(http.MethodGet, "/v1/live-status?owner="+ownerID, viewer, nil)
	decode(t, rec, &status)
	assert.Equal(t, "busy", status.State)

	rec = h.do(http.MethodGet, "/v1/live-status", viewer, nil)
	decode(t, rec, &status)
	assert.Equal(t, "free", status.State)

	rec = h.do(http.MethodGet, "/v1/live-status?owner=ghost", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &status)
	assert.Equal(t, "unknown", status.State)
	assert.Equal(t, "Unknown", status.Description)
}

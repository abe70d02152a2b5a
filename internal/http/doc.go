// Package http exposes the planner services over a JSON API built on echo.
//
// Routes, all under /v1:
//   - POST /owners, POST /sessions: sign up and login. Login returns a bearer
//     token that every other route requires.
//   - GET|PUT /owners/me: the principal's profile and daily focus goal.
//   - GET|POST /schedule, GET|PUT|DELETE /schedule/{id}, POST /schedule/import:
//     weekly slots. Writes answer with the slot plus overlap warnings; import
//     reports a per-item outcome and never fails the batch for one bad item.
//   - POST|GET /attendance, GET /attendance/summary, GET /attendance/sheet:
//     attendance marks, per-subject percentages and dated occurrence sheets.
//   - GET|POST /tasks, GET|PUT|DELETE /tasks/{id}, POST /tasks/sync: the daily
//     task board and its reconciliation with personal slots.
//   - POST|GET /focus/sessions, GET /focus/today: timer sessions and totals.
//   - GET /live-status?owner=: busy, free or unknown, derived on every call.
//
// Errors share one body, {"error_code","message","errors"}, where errors maps
// JSON field names to messages on 422 responses.
package http

// Package http provides HTTP handlers and middleware for the attendance API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","staff","stores"} where `stores` lists the member's
//     store memberships with roles. The token is also surfaced via the
//     `X-Session-Token` header and an `attendance_session` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from
//     the Authorization header or session cookie. Returns 204 No Content and
//     clears the cookie. DELETE /sessions/{token} lets administrators revoke an
//     arbitrary token.
//   - POST /clock-events: records a clock-in, clock-out, break-start, or
//     break-end punch exchanging the `clockEventDTO` payload defined in
//     clock_handler.go. PUT /clock-events/{id}/time edits the claimed time and
//     POST /clock-events/{id}/approval applies an approve or reject decision.
//   - GET /work-status: reports the caller's (or, for administrators, any
//     staff member's) current state derived from today's punches.
//   - GET /summaries/daily, /summaries/weekly, /summaries/monthly: reconciled
//     work-time summaries exchanging the summary DTOs defined in
//     summary_handler.go. GET /stores/{id}/summary returns the per-staff
//     monthly rollup for one store; `?format=xlsx` streams it as a workbook.
//   - GET /shifts, POST /shifts, POST /shifts/copy: scheduled shift endpoints
//     exchanging the `shiftDTO` payload defined in shift_handler.go. Copying
//     duplicates one day's shifts onto another date.
//   - GET /staff, POST /staff, GET /staff/{id}: administrator controlled staff
//     account endpoints exchanging the `staffDTO` payload defined in
//     staff_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http

package checkin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/response"
)

// HTTPSessionRepository talks to the attendance server's student API. It
// decodes the server's response envelope and translates its error codes into
// the CheckInError taxonomy, so rejections keep their meaning across the
// wire.
type HTTPSessionRepository struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSessionRepository creates a repository against baseURL (e.g.
// "https://api.hadirku.id/api/v1") authenticated with the student's JWT.
func NewHTTPSessionRepository(baseURL, token string, client *http.Client) *HTTPSessionRepository {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSessionRepository{baseURL: baseURL, token: token, client: client}
}

// Session implements SessionRepository.
func (r *HTTPSessionRepository) Session(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceSession, error) {
	var out struct {
		Session *model.AttendanceSession `json:"session"`
	}
	if err := r.do(ctx, http.MethodGet, "/student/sessions/"+sessionID.String(), nil, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

// TodaySessions implements SessionRepository.
func (r *HTTPSessionRepository) TodaySessions(ctx context.Context) ([]model.AttendanceSession, error) {
	var out struct {
		Sessions []model.AttendanceSession `json:"sessions"`
	}
	if err := r.do(ctx, http.MethodGet, "/student/sessions/today", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Record implements SessionRepository. A missing record is (nil, nil), not an
// error: "no record yet" is the normal state before the first check-in.
func (r *HTTPSessionRepository) Record(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceRecord, error) {
	var out struct {
		Record *model.AttendanceRecord `json:"record"`
	}
	err := r.do(ctx, http.MethodGet, "/student/sessions/"+sessionID.String()+"/record", nil, &out)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out.Record, nil
}

// SubmitCheckIn implements SessionRepository.
func (r *HTTPSessionRepository) SubmitCheckIn(ctx context.Context, sessionID uuid.UUID, coord geo.Coordinate) (*model.AttendanceRecord, error) {
	body := model.CheckInRequest{
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
		Accuracy:  coord.Accuracy,
	}
	var out struct {
		Record *model.AttendanceRecord `json:"record"`
	}
	if err := r.do(ctx, http.MethodPost, "/student/sessions/"+sessionID.String()+"/check-in", body, &out); err != nil {
		return nil, err
	}
	return out.Record, nil
}

// SubmitManualMark implements SessionRepository.
func (r *HTTPSessionRepository) SubmitManualMark(ctx context.Context, sessionID uuid.UUID, studentID int, status model.AttendanceStatus, note string) (*model.AttendanceRecord, error) {
	body := model.ManualMarkRequest{Status: status, Note: note}
	var out struct {
		Record *model.AttendanceRecord `json:"record"`
	}
	path := fmt.Sprintf("/teacher/sessions/%s/records/%d", sessionID, studentID)
	if err := r.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return out.Record, nil
}

// SubmitBatchMarks implements SessionRepository.
func (r *HTTPSessionRepository) SubmitBatchMarks(ctx context.Context, sessionID uuid.UUID, marks []model.BatchMarkEntry) ([]model.BatchMarkResult, error) {
	body := model.BatchMarkRequest{Marks: marks}
	var out struct {
		Results []model.BatchMarkResult `json:"results"`
	}
	if err := r.do(ctx, http.MethodPost, "/teacher/sessions/"+sessionID.String()+"/records/batch", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// History implements SessionRepository.
func (r *HTTPSessionRepository) History(ctx context.Context, page, perPage int) ([]model.AttendanceRecord, error) {
	var out struct {
		Records []model.AttendanceRecord `json:"records"`
	}
	path := fmt.Sprintf("/student/history?page=%d&per_page=%d", page, perPage)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// errNotFound marks a server NOT_FOUND so Record can treat it as "no record
// yet" rather than a failure.
var errNotFound = errors.New("not found")

// envelope mirrors the server's response shape with the data left raw.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

// do performs one request and decodes the envelope. Transport failures map
// to NETWORK_ERROR; the orchestrator never auto-retries those because the
// check-in endpoint is not idempotent.
func (r *HTTPSessionRepository) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return &CheckInError{Code: CodeValidation, Message: "encode request body", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, &buf)
	if err != nil {
		return &CheckInError{Code: CodeValidation, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return &CheckInError{Code: CodeNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 500 {
			return &CheckInError{Code: CodeServer, Message: fmt.Sprintf("server returned %d", resp.StatusCode), Err: err}
		}
		return &CheckInError{Code: CodeUnknown, Message: "decode response", Err: err}
	}

	if env.Error != nil {
		return mapServerError(resp.StatusCode, env.Error)
	}
	if resp.StatusCode >= 400 {
		return &CheckInError{Code: CodeServer, Message: fmt.Sprintf("server returned %d", resp.StatusCode)}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &CheckInError{Code: CodeUnknown, Message: "decode response data", Err: err}
		}
	}
	return nil
}

// mapServerError translates the server's ErrCode into the local taxonomy so
// server-side rejections and local pre-validation failures are
// indistinguishable to callers.
func mapServerError(status int, body *response.ErrorBody) *CheckInError {
	ce := &CheckInError{Message: body.Message}
	switch body.Code {
	case response.ErrAlreadyCheckedIn:
		ce.Code = CodeAlreadyCheckedIn
	case response.ErrNotToday:
		ce.Code = CodeNotToday
	case response.ErrSessionClosed:
		ce.Code = CodeSessionClosed
	case response.ErrTooEarly:
		ce.Code = CodeTooEarly
	case response.ErrTooLate:
		ce.Code = CodeTooLate
	case response.ErrOutOfRange:
		ce.Code = CodeOutOfRange
	case response.ErrLocationUnavailable:
		ce.Code = CodeLocationUnavailable
	case response.ErrValidation, response.ErrInvalidID, response.ErrInvalidPayload:
		ce.Code = CodeValidation
	case response.ErrNotFound:
		ce.Code = CodeUnknown
		ce.Err = errNotFound
	case response.ErrInternal:
		ce.Code = CodeServer
	default:
		if status >= 500 {
			ce.Code = CodeServer
		} else {
			ce.Code = CodeUnknown
		}
	}
	return ce
}

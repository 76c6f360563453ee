package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/fluentprep/exam-engine/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sentinel errors mapped from API error codes.
var (
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("session already ended")
)

// Client talks to the platform's session API. It implements
// engine.SessionAPI; the wire shape (envelope, error codes) is owned by the
// API, this client only decodes it.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates an API client. baseURL includes the version prefix
// (e.g. http://localhost:8080/api/v1). timeout of zero means no client-side
// timeout: a hung completion call leaves the engine in submitting until the
// user reloads, which is the documented recovery path.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "api_client").Logger(),
	}
}

// SetToken replaces the bearer token (after Login).
func (c *Client) SetToken(token string) { c.token = token }

// envelope mirrors response.Response with raw data for two-phase decoding.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error,omitempty"`
}

// APIError is a non-success response decoded from the envelope.
type APIError struct {
	Status  int
	Code    response.ErrCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps well-known statuses onto sentinel errors for errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// Login exchanges candidate credentials for a bearer token and stores it on
// the client.
func (c *Client) Login(ctx context.Context, candidateID, accessCode string) error {
	body := map[string]string{"candidate_id": candidateID, "access_code": accessCode}
	var data struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &data); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.token = data.Token
	return nil
}

// CreateSession starts a new practice session of the given exam type. The
// session is created server-side before the engine attaches to it.
func (c *Client) CreateSession(ctx context.Context, examType model.ExamType) (*model.Session, error) {
	var data struct {
		Session model.Session `json:"session"`
	}
	req := model.CreateSessionRequest{ExamType: examType}
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &data); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &data.Session, nil
}

// FetchSession returns the session metadata used to seed the clock.
func (c *Client) FetchSession(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	var data struct {
		Session model.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID.String(), nil, &data); err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	return &data.Session, nil
}

// FetchQuestions returns the ordered question sequence for the session.
func (c *Client) FetchQuestions(ctx context.Context, sessionID uuid.UUID) ([]model.Question, error) {
	var data struct {
		Questions []model.Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID.String()+"/questions", nil, &data); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return data.Questions, nil
}

// SaveAnswer persists one answer. Called once per answered question during
// the submission drain.
func (c *Client) SaveAnswer(ctx context.Context, sessionID uuid.UUID, answer model.Answer) error {
	path := "/sessions/" + sessionID.String() + "/answers/" + answer.QuestionID.String()
	req := model.SaveAnswerRequest{
		Value:            answer.Value,
		TimeSpentSeconds: answer.TimeSpentSeconds,
	}
	if err := c.do(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// CompleteSession marks the session completed server-side. No body.
func (c *Client) CompleteSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID.String()+"/complete", nil, nil); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

// do issues one request and decodes the envelope into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Code: response.ErrInternal}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("code", string(apiErr.Code)).
			Msg("Request failed")
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/fluentprep/exam-engine/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func envelopeJSON(data interface{}) []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"data":     data,
		"metadata": map[string]string{"request_id": "test", "timestamp": time.Now().UTC().Format(time.RFC3339)},
	})
	return raw
}

func errorJSON(code response.ErrCode) []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"data": nil,
		"error": map[string]string{
			"code":    string(code),
			"message": response.GetMessage(code),
		},
		"metadata": map[string]string{"request_id": "test"},
	})
	return raw
}

func TestClientFetchSession(t *testing.T) {
	sid := uuid.New()
	started := time.Now().Add(-5 * time.Minute).UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/sessions/"+sid.String() {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write(envelopeJSON(map[string]interface{}{"session": model.Session{
			ID:        sid,
			ExamType:  model.ExamTypeReading,
			Status:    model.SessionStatusInProgress,
			StartedAt: started,
		}}))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, zerolog.Nop())
	session, err := c.FetchSession(context.Background(), sid)
	if err != nil {
		t.Fatalf("FetchSession: %v", err)
	}
	if session.ID != sid || session.ExamType != model.ExamTypeReading {
		t.Fatalf("session = %+v", session)
	}
	if !session.StartedAt.Equal(started) {
		t.Fatalf("StartedAt = %v, want %v", session.StartedAt, started)
	}
}

func TestClientFetchQuestionsKeepsOrder(t *testing.T) {
	sid := uuid.New()
	want := []model.Question{
		{ID: uuid.New(), Module: model.ModuleListening, OrderNum: 1, Prompt: "first"},
		{ID: uuid.New(), Module: model.ModuleListening, OrderNum: 2, Prompt: "second"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/"+sid.String()+"/questions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write(envelopeJSON(map[string]interface{}{"questions": want}))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, zerolog.Nop())
	got, err := c.FetchQuestions(context.Background(), sid)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(got) != 2 || got[0].ID != want[0].ID || got[1].ID != want[1].ID {
		t.Fatalf("questions = %+v", got)
	}
}

func TestClientSaveAnswerBodyAndPath(t *testing.T) {
	sid, qid := uuid.New(), uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/sessions/"+sid.String()+"/answers/"+qid.String() {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req model.SaveAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Value != "B" || req.TimeSpentSeconds != 0 {
			t.Errorf("body = %+v", req)
		}
		w.Write(envelopeJSON(map[string]bool{"saved": true}))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, zerolog.Nop())
	err := c.SaveAnswer(context.Background(), sid, model.Answer{QuestionID: qid, Value: "B"})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
}

func TestClientMapsErrorCodes(t *testing.T) {
	for _, tc := range []struct {
		status int
		code   response.ErrCode
		want   error
	}{
		{http.StatusNotFound, response.ErrNotFound, ErrNotFound},
		{http.StatusUnauthorized, response.ErrTokenInvalid, ErrUnauthorized},
		{http.StatusConflict, response.ErrSessionTerminal, ErrConflict},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write(errorJSON(tc.code))
		}))

		c := NewClient(srv.URL, "tok", 0, zerolog.Nop())
		err := c.CompleteSession(context.Background(), uuid.New())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Code != tc.code {
			t.Errorf("status %d: APIError not preserved: %v", tc.status, err)
		}
		srv.Close()
	}
}

func TestClientLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.Write(envelopeJSON(map[string]string{"token": "issued"}))
		default:
			if got := r.Header.Get("Authorization"); got != "Bearer issued" {
				t.Errorf("Authorization = %q after login", got)
			}
			w.Write(envelopeJSON(map[string]interface{}{"session": model.Session{ID: uuid.New()}}))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0, zerolog.Nop())
	if err := c.Login(context.Background(), "demo", "practice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := c.CreateSession(context.Background(), model.ExamTypeReading); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/smeta/internal/domain"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(e CallEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() CallEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	return New(Config{BaseURL: srv.URL + "/", Timeout: time.Second}, StaticToken("tok-123"), obs), obs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_SendsBearerTokenAndRequestID(t *testing.T) {
	var seenID string
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plans", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		seenID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "plan_name": "2025", "year": 2025}})
	})

	plans, err := client.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "2025", plans[0].Name)

	_, err = uuid.Parse(seenID)
	assert.NoError(t, err, "request id is a uuid")
	ev := obs.last()
	assert.Equal(t, seenID, ev.RequestID)
	assert.Equal(t, http.StatusOK, ev.Status)
	assert.True(t, ev.Success())
}

func TestClient_NoTokenSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []any{})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, nil, nil)
	_, err := client.ListPlans(context.Background())
	assert.NoError(t, err)
}

func TestClient_DetailShapes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		detail string
		errs   []string
	}{
		{"string", http.StatusForbidden, map[string]any{"detail": "Импорт возможен только в черновик"}, "Импорт возможен только в черновик", nil},
		{"field list", http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{{"msg": "field required"}, {"msg": "value is not a valid integer"}}}, "field required; value is not a valid integer", nil},
		{"object", http.StatusBadRequest, map[string]any{"detail": map[string]any{"message": "Ошибки в файле", "errors": []string{"Строка 2: ..."}}}, "Ошибки в файле", []string{"Строка 2: ..."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.GetPlan(context.Background(), 1)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.detail, apiErr.Error())
			assert.Equal(t, tt.errs, apiErr.Errors)
			assert.NotEmpty(t, apiErr.RequestID)
			assert.Equal(t, "HTTP_"+strconv.Itoa(tt.status), obs.last().ErrorCode)
		})
	}
}

func TestClient_UnauthorizedAndNotFoundMatchSentinels(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/items/1" {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Позиция не найдена"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Could not validate credentials"})
	})

	_, err := client.ListPlans(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = client.GetItem(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Позиция не найдена", err.Error())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := New(Config{BaseURL: srv.URL, Timeout: 30 * time.Millisecond}, nil, obs)
	_, err := client.ListPlans(context.Background())

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "TIMEOUT", obs.last().ErrorCode)
}

func TestClient_Unavailable(t *testing.T) {
	obs := &recordingObserver{}
	client := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil, obs)

	_, err := client.ListPlans(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "UNAVAILABLE", obs.last().ErrorCode)
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
	})

	_, err := client.ListPlans(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_InvalidPayloadIsNeverSent(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := client.CreateExecution(context.Background(), domain.ExecutionPayload{
		ItemID:               1,
		SupplierName:         "ТОО Поставщик",
		SupplierBIN:          "12345",
		ContractNumber:       "A-1",
		ContractDate:         "2025-03-01",
		ContractQuantity:     1,
		ContractPricePerUnit: 10,
	})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.True(t, valErr.Has("supplier_bin"))
	assert.False(t, valErr.Has("contract_date"))
	assert.Zero(t, calls.Load())
}

func TestClient_ValidPayloadIsSentAsJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/plans/3/versions/9/status", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PRE_APPROVED", body["status"])
		writeJSON(w, http.StatusOK, map[string]any{"id": 9, "status": "PRE_APPROVED", "total_amount": "1500.00"})
	})

	v, err := client.SetVersionStatus(context.Background(), 3, 9, domain.StatusPreApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreApproved, v.Status)
	assert.Equal(t, domain.Amount(1500), v.TotalAmount)
}

func TestClient_MalformedBodyIsInvalidResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "not a number"`))
	})

	_, err := client.GetPlan(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestLogin_IsFormEncoded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "aigerim", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "jwt", "token_type": "bearer"})
	})

	res, err := client.Login(context.Background(), "aigerim", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.AccessToken)
}

func TestSearchKato_Query(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("parent_id"))
		assert.Equal(t, "Алм", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 8, "code": "750000000", "name_ru": "Алматы"}})
	})

	parent := int64(7)
	out, err := client.SearchKato(context.Background(), &parent, "Алм")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Алматы", out[0].NameRu)
}

func TestCheckKtp(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookups/enstru/251111.100.000000/ktp", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"is_ktp": true})
	})

	st, err := client.CheckKtp(context.Background(), "251111.100.000000")
	require.NoError(t, err)
	assert.True(t, st.IsKtp)
}

func TestLogObserver_WritesAPICallLines(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogObserver(&buf, nil)
	obs.OnCallComplete(CallEvent{Method: "GET", Path: "/plans", Status: 200, RequestID: "r1"})
	obs.OnCallComplete(CallEvent{Method: "GET", Path: "/plans", ErrorCode: "TIMEOUT"})

	out := buf.String()
	assert.Contains(t, out, "msg=api_call")
	assert.Contains(t, out, "request_id=r1")
	assert.Contains(t, out, "error_code=TIMEOUT")
}

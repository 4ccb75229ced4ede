package scrnscore

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

//
// stand-in for the supabase backend: answers the postgrest routes
// the scoring pipeline uses and records what was written.
//
type backendStub struct {
	mu              sync.Mutex
	userInserts     int
	skillInserts    []string // request bodies
	categoryUpserts []string
	conflictQuery   string
}

func (b *backendStub) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		switch {
		case r.URL.Path == "/rest/v1/users" && r.Method == http.MethodPost:
			b.userInserts++
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`[{"user_id":"user-1","email":"x@y.com"}]`))
		case r.URL.Path == "/rest/v1/skill_scores" && r.Method == http.MethodGet:
			w.Write([]byte(`[]`))
		case r.URL.Path == "/rest/v1/skill_scores" && r.Method == http.MethodPost:
			b.skillInserts = append(b.skillInserts, string(body))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`[` + string(body) + `]`))
		case r.URL.Path == "/rest/v1/category_scores" && r.Method == http.MethodPost:
			b.categoryUpserts = append(b.categoryUpserts, string(body))
			b.conflictQuery = r.URL.Query().Get("on_conflict")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(string(body)))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`[]`))
		}
	}))
}

func newTestService(t *testing.T, storeURL string, extra ...Option) *ScrnScoreService {
	t.Helper()
	opts := append([]Option{
		Name("tester"),
		ID("test-1"),
		StoreURL(storeURL),
		StoreKey("test-key"),
	}, extra...)
	srvc, err := New(opts...)
	require.NoError(t, err)
	return srvc
}

func do(s *ScrnScoreService, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	rec := do(newTestService(t, ts.URL), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"OK"`, rec.Body.String())
}

func TestCalculateScore(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	payload := `{
		"section1.phaw83": "yes",
		"section1.prkn12": "no",
		"email": "x@y.com"
	}`
	rec := do(newTestService(t, ts.URL), http.MethodPost, "/calculate_score", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := gjson.Parse(rec.Body.String())
	assert.Equal(t, "user-1", res.Get("userId").String())
	assert.Equal(t, "tester", res.Get("scoreServiceName").String())

	scores := res.Get("scores.language_and_literacy")
	assert.Equal(t, int64(1), scores.Get("phonological_awareness.total_questions").Int())
	assert.Equal(t, int64(1), scores.Get("phonological_awareness.correct_answers").Int())
	assert.Equal(t, int64(1), scores.Get("print_knowledge.total_questions").Int())
	assert.Equal(t, int64(0), scores.Get("print_knowledge.correct_answers").Int())

	// persistence: one user, a batch of two category summaries
	// upserted on the natural key, and one row per skill value
	assert.Equal(t, 1, stub.userInserts)
	require.Len(t, stub.categoryUpserts, 1)
	assert.Equal(t, "user_id,domain,category", stub.conflictQuery)
	batch := gjson.Parse(stub.categoryUpserts[0])
	assert.Len(t, batch.Array(), 2)
	require.Len(t, stub.skillInserts, 2)
	names := []string{
		gjson.Parse(stub.skillInserts[0]).Get("skill_name_id").String(),
		gjson.Parse(stub.skillInserts[1]).Get("skill_name_id").String(),
	}
	assert.ElementsMatch(t, []string{"PhAw83", "PrKn12"}, names)
}

func TestCalculateScoreMissingEmail(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	rec := do(newTestService(t, ts.URL), http.MethodPost, "/calculate_score",
		`{"section1.phaw83": "yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// identity failures stop the request before any persistence
	assert.Equal(t, 0, stub.userInserts)
	assert.Empty(t, stub.skillInserts)
	assert.Empty(t, stub.categoryUpserts)
}

func TestCalculateScoreRejectsNonJSON(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	s := newTestService(t, ts.URL)

	rec := do(s, http.MethodPost, "/calculate_score", `not json at all`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/calculate_score", `["an","array"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateScoreStoreFailure(t *testing.T) {
	// a store that refuses everything surfaces as a gateway error
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	rec := do(newTestService(t, ts.URL), http.MethodPost, "/calculate_score",
		`{"section1.phaw83": "yes", "email": "x@y.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRelayRoundTrip(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	s := newTestService(t, ts.URL)

	// nothing stored yet
	rec := do(s, http.MethodGet, "/send_to_java", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = do(s, http.MethodPost, "/send_to_java", `{"next_activity":"rhyming"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", gjson.Parse(rec.Body.String()).Get("status").String())

	rec = do(s, http.MethodGet, "/send_to_java", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"next_activity":"rhyming"}`, rec.Body.String())

	rec = do(s, http.MethodPost, "/send_to_java", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPITest(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	s := newTestService(t, ts.URL)

	rec := do(s, http.MethodGet, "/api_test", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodPost, "/api_test", `{"probe":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Parse(rec.Body.String()).Get("data.probe").Bool())
}

func TestGenerateStory(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	textgen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, int64(4), gjson.GetBytes(body, "score").Int())
		w.Write([]byte(`{"story":"once upon a time"}`))
	}))
	defer textgen.Close()

	s := newTestService(t, ts.URL, TextgenURL(textgen.URL))

	rec := do(s, http.MethodPost, "/generate_story", `{"score": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "once upon a time", gjson.Parse(rec.Body.String()).Get("story").String())

	// score is mandatory
	rec = do(s, http.MethodPost, "/generate_story", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateStoryUnconfigured(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	rec := do(newTestService(t, ts.URL), http.MethodPost, "/generate_story", `{"score": 4}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerEndpoints(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	s := newTestService(t, ts.URL)

	rec := do(s, http.MethodPost, "/trigger-400", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/trigger-400", `{"valid":"json"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Valid request received", rec.Body.String())

	rec = do(s, http.MethodGet, "/trigger-403", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(s, http.MethodGet, "/trigger-500", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := gjson.Parse(rec.Body.String())
	assert.Equal(t, "Internal Server Error", envelope.Get("error").String())
	assert.Equal(t, "/trigger-500", envelope.Get("url").String())
	assert.Equal(t, http.MethodGet, envelope.Get("method").String())
}

func TestErrorEnvelopeOnNotFound(t *testing.T) {
	stub := &backendStub{}
	ts := stub.server()
	defer ts.Close()

	rec := do(newTestService(t, ts.URL), http.MethodGet, "/no_such_route", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := gjson.Parse(rec.Body.String())
	assert.Equal(t, "/no_such_route", envelope.Get("url").String())
	assert.Equal(t, http.MethodGet, envelope.Get("method").String())
}

func TestNewRequiresStoreURL(t *testing.T) {
	_, err := New(Name("tester"), ID("test-1"))
	assert.Error(t, err)
}

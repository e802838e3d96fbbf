package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RixhersAjazi/schedulemaker/app"
	"github.com/RixhersAjazi/schedulemaker/core/model"
	"github.com/RixhersAjazi/schedulemaker/core/request"
	"github.com/RixhersAjazi/schedulemaker/core/runlog"
)

type fakeService struct {
	got      *request.Request
	err      error
	rejected []error
	query    runlog.RunQuery
	records  []runlog.RunRecord
}

func (f *fakeService) Generate(_ context.Context, req *request.Request) (*app.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	c := model.Combination{req.Groups[0].Options[0]}
	return &app.Result{RunID: "run-1", Schedules: []model.Schedule{model.NewSchedule(c, req.Fixed)}}, nil
}

func (f *fakeService) Reject(_ context.Context, err error) { f.rejected = append(f.rejected, err) }

func (f *fakeService) QueryRuns(_ context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	f.query = q
	return f.records, nil
}

const body = `{"groups":[{"name":"CSCI-101","options":[{"id":"CSCI-101-01","times":[{"day":"Mon","start":"9:00am","end":"9:50am"}]}]}]}`

func do(h http.Handler, method, target, payload string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGenerate(t *testing.T) {
	svc := &fakeService{}
	h := NewRouter(svc, Options{Token: "tok"})

	rr := do(h, http.MethodPost, "/api/schedules/generate?verbose=true", body, map[string]string{"Authorization": "Bearer tok"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var res app.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "run-1", res.RunID)
	require.Len(t, res.Schedules, 1)
	assert.Equal(t, []string{"CSCI-101-01"}, res.Schedules[0].Options.IDs())
	assert.True(t, svc.got.Verbose)
	assert.Equal(t, 1, svc.got.Groups[0].Options[0].Slot)
}

func TestGenerateYAML(t *testing.T) {
	svc := &fakeService{}
	h := NewRouter(svc, Options{})
	yml := "groups:\n  - options:\n      - id: X\n        times: [{day: Tue, start: 600, end: 660}]\n"

	rr := do(h, http.MethodPost, "/api/schedules/generate", yml, map[string]string{"Content-Type": "application/yaml"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "X", svc.got.Groups[0].Options[0].ID)
}

func TestGenerateErrors(t *testing.T) {
	cases := []struct {
		name    string
		svcErr  error
		payload string
		status  int
		kind    string
		reject  bool
	}{
		{"malformed json", nil, `{"groups":`, http.StatusBadRequest, "argument", true},
		{"unknown field", nil, `{"courses":[]}`, http.StatusBadRequest, "argument", true},
		{"empty request", nil, `{}`, http.StatusBadRequest, "argument", true},
		{"service rejects", request.ErrNegativeLimit, body, http.StatusBadRequest, "argument", false},
		{"deadline", context.DeadlineExceeded, body, http.StatusGatewayTimeout, "timeout", false},
		{"internal", errors.New("boom"), body, http.StatusInternalServerError, "internal", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := &fakeService{err: c.svcErr}
			rr := do(NewRouter(svc, Options{}), http.MethodPost, "/api/schedules/generate", c.payload, nil)
			assert.Equal(t, c.status, rr.Code)
			var eb errorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eb))
			assert.Equal(t, c.kind, eb.Error)
			assert.NotEmpty(t, eb.Msg)
			assert.Equal(t, c.reject, len(svc.rejected) == 1)
		})
	}
}

func TestGenerateVerboseQuery(t *testing.T) {
	verboseBody := strings.Replace(body, `{"groups"`, `{"verbose":true,"groups"`, 1)

	svc := &fakeService{}
	rr := do(NewRouter(svc, Options{}), http.MethodPost, "/api/schedules/generate?verbose=maybe", verboseBody, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, svc.got, "the search never runs")

	rr = do(NewRouter(svc, Options{}), http.MethodPost, "/api/schedules/generate?verbose=false", verboseBody, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, svc.got.Verbose, "a valid query value overrides the body")

	rr = do(NewRouter(svc, Options{}), http.MethodPost, "/api/schedules/generate", verboseBody, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, svc.got.Verbose)
}

func TestGenerateEmptyRequestMessage(t *testing.T) {
	rr := do(NewRouter(&fakeService{}, Options{}), http.MethodPost, "/api/schedules/generate", `{"groups":[]}`, nil)
	var eb errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eb))
	assert.Equal(t, request.ErrEmptyRequest.Error(), eb.Msg)
}

func TestGenerateBodyLimit(t *testing.T) {
	h := NewRouter(&fakeService{}, Options{MaxBodyBytes: 16})
	rr := do(h, http.MethodPost, "/api/schedules/generate", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestAuth(t *testing.T) {
	h := NewRouter(&fakeService{}, Options{Token: "tok"})

	rr := do(h, http.MethodPost, "/api/schedules/generate", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = do(h, http.MethodGet, "/api/runs", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "health check needs no token")
	assert.Equal(t, "ok", rr.Body.String())
}

func TestRuns(t *testing.T) {
	ts := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	svc := &fakeService{records: []runlog.RunRecord{{RunID: "r1", Timestamp: ts, Source: "cli", Combinations: 4}}}
	h := NewRouter(svc, Options{})

	rr := do(h, http.MethodGet, "/api/runs?start=2024-01-01T00:00:00Z&end=2024-02-01T00:00:00Z&source=cli&min_combinations=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out []runlog.RunRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].RunID)

	assert.Equal(t, "cli", svc.query.Source)
	assert.Equal(t, 2, svc.query.MinCombinations)
	assert.Equal(t, 5, svc.query.Limit)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), svc.query.Start)

	svc.records = nil
	rr = do(h, http.MethodGet, "/api/runs", "", nil)
	assert.JSONEq(t, "[]", rr.Body.String())

	for _, bad := range []string{"start=yesterday", "end=1", "min_combinations=x", "limit=-1"} {
		rr = do(h, http.MethodGet, "/api/runs?"+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, bad)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(NewRouter(&fakeService{}, Options{}), http.MethodGet, "/api/schedules/generate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

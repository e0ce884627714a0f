package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/corey/survey/internal/adapters/bbolt"
	"github.com/corey/survey/internal/adapters/remote"
	"github.com/corey/survey/internal/domain/allocation"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var smallLayout = survey.Layout{PoolSize: 30, GroupSize: 10}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store, err := bbolt.NewStore(filepath.Join(t.TempDir(), "collect.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bal, err := allocation.NewBalancer(store, smallLayout)
	require.NoError(t, err)
	srv := NewServer(bal, store, smallLayout, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func completeSubmission(t *testing.T, id string, group int) survey.Submission {
	t.Helper()
	items, err := smallLayout.Items(group)
	require.NoError(t, err)
	five := survey.Likert(5)
	var responses []survey.Response
	for _, id := range items {
		r := survey.NewResponse(id)
		r.Aesthetics, r.Stability, r.Identity, r.Depression, r.Boredom = &five, &five, &five, &five, &five
		responses = append(responses, r)
	}
	return survey.Submission{
		Action:       survey.SubmitAction,
		SubmissionID: id,
		Demographics: survey.Demographics{Gender: "여성", Age: "20대", Job: "학생"},
		GroupID:      group,
		Responses:    responses,
		Timestamp:    "2026-05-01T09:00:00.000Z",
	}
}

func post(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(url, "text/plain;charset=utf-8", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestAssignEndpoint_BalancesWithinStratum(t *testing.T) {
	srv, ts := newTestServer(t)

	var got []int
	for i := 0; i < 4; i++ {
		resp, err := http.Get(ts.URL + "/?action=assignGroup&gender=%EB%82%A8%EC%84%B1&age=30%EB%8C%80&job=%EA%B8%B0%ED%83%80")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var body struct {
			GroupID int `json:"groupId"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		got = append(got, body.GroupID)
	}
	assert.Equal(t, []int{1, 2, 3, 1}, got)
	assert.Equal(t, 2.0, testutil.ToFloat64(srv.Metrics().allocations.WithLabelValues("1")))
}

func TestAssignEndpoint_Errors(t *testing.T) {
	_, ts := newTestServer(t)

	for name, query := range map[string]string{
		"no action":      "/",
		"unknown action": "/?action=peek",
		"bad gender":     "/?action=assignGroup&gender=x&age=20s",
	} {
		resp, err := http.Get(ts.URL + query)
		require.NoError(t, err, name)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		var e errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
		resp.Body.Close()
		assert.NotEmpty(t, e.Error, name)
	}
}

func TestSubmitEndpoint_StoresAndDeduplicates(t *testing.T) {
	srv, ts := newTestServer(t)

	sub := completeSubmission(t, "s-1", 2)
	for i := 0; i < 2; i++ {
		resp := post(t, ts.URL+"/", sub)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	var all []ports.StoredSubmission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	require.Len(t, all, 1)
	assert.Equal(t, "s-1", all[0].Key)
	assert.Equal(t, 2, all[0].Attempts)
	assert.Equal(t, sub, all[0].Submission)

	assert.Equal(t, 2.0, testutil.ToFloat64(srv.Metrics().submissions.WithLabelValues(resultAccepted)))
}

func TestSubmitEndpoint_Rejects(t *testing.T) {
	srv, ts := newTestServer(t)

	wrongImages := completeSubmission(t, "a", 1)
	wrongImages.Responses[0].ImageID = "99"
	wrongAction := completeSubmission(t, "b", 1)
	wrongAction.Action = "peek"
	badGroup := completeSubmission(t, "c", 1)
	badGroup.GroupID = 4
	badRating := completeSubmission(t, "d", 1)
	nine := survey.Likert(9)
	badRating.Responses[3].Boredom = &nine

	for _, sub := range []survey.Submission{wrongImages, wrongAction, badGroup, badRating} {
		resp := post(t, ts.URL+"/", sub)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, sub.SubmissionID)
		resp.Body.Close()
	}

	resp, err := http.Post(ts.URL+"/", "text/plain", strings.NewReader("{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, 5.0, testutil.ToFloat64(srv.Metrics().submissions.WithLabelValues(resultRejected)))
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	post(t, ts.URL+"/", completeSubmission(t, "h", 3)).Body.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	var result HealthResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, 3, result.Groups)
	assert.Equal(t, 1, result.Submissions)
}

func TestExportEndpoint_Empty(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	var all []ports.StoredSubmission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `survey_http_requests_total{code="200",method="GET"}`)
}

// The respondent-side client and the server agree on the wire contract.
func TestRemoteClientRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	client, err := remote.NewClient(ts.URL, 2*time.Second)
	require.NoError(t, err)
	defer client.CloseIdle()

	g, err := client.Allocate(context.Background(), survey.Demographics{Gender: "남성", Age: "50대", Job: "무직"})
	require.NoError(t, err)
	assert.Equal(t, 1, g)

	require.NoError(t, client.Collect(context.Background(), completeSubmission(t, "rt", g)))

	bad := completeSubmission(t, "rt2", g)
	bad.GroupID = 0
	var se *remote.StatusError
	assert.ErrorAs(t, client.Collect(context.Background(), bad), &se)
}

func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store, err := bbolt.NewStore(filepath.Join(t.TempDir(), "collect.db"))
	require.NoError(t, err)
	defer store.Close()
	bal, err := allocation.NewBalancer(store, smallLayout)
	require.NoError(t, err)

	srv := NewServer(bal, store, smallLayout, nil)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	assert.True(t, strings.HasPrefix(srv.URL(), "http://127.0.0.1:"))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(srv.URL() + "api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx), "idempotent")

	_, err = client.Get(srv.URL() + "api/health")
	assert.Error(t, err)
}

// brokenListener fails every Accept.
type brokenListener struct{ err error }

func (l brokenListener) Accept() (net.Conn, error) { return nil, l.err }
func (l brokenListener) Close() error              { return nil }
func (l brokenListener) Addr() net.Addr            { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9} }

func TestServer_ServeReturnsListenerFailure(t *testing.T) {
	srv := NewServer(nil, nil, smallLayout, nil)
	assert.Error(t, srv.Serve(), "serve without a listener")

	boom := errors.New("accept: boom")
	srv.Attach(brokenListener{err: boom})
	assert.ErrorIs(t, srv.Serve(), boom)
}

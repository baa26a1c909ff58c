package blobserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/storage"
	"github.com/fadedpez/reverseroulette/pkg/storage/httpblob"
	"github.com/fadedpez/reverseroulette/pkg/storage/memory"
	mock_storage "github.com/fadedpez/reverseroulette/pkg/storage/mock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServerTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Storage
	server *Server
	ts     *httptest.Server
	client *httpblob.Client
}

func TestServerSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.server = NewServer(s.store, time.Hour, logging.NewNop())
	s.ts = httptest.NewServer(s.server.Handler())
	s.client = httpblob.NewClient(s.ts.URL+BasePath, time.Second)
}

func (s *ServerTestSuite) TearDownTest() {
	s.ts.Close()
	s.server.Stop()
}

func (s *ServerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) TestClientRoundTrip() {
	id, err := s.client.Create(s.ctx, []byte(`{"version":0}`))
	s.Require().NoError(err)
	s.NotEmpty(id)

	data, err := s.client.Get(s.ctx, id)
	s.Require().NoError(err)
	s.JSONEq(`{"version":0}`, string(data))

	s.Require().NoError(s.client.Put(s.ctx, id, []byte(`{"version":1}`)))
	data, err = s.client.Get(s.ctx, id)
	s.Require().NoError(err)
	s.JSONEq(`{"version":1}`, string(data))
}

func (s *ServerTestSuite) TestCreateSetsLocation() {
	rec := s.do(http.MethodPost, BasePath, `{"a":1}`)

	s.Equal(http.StatusCreated, rec.Code)
	id := rec.Header().Get("X-Jsonblob-Id")
	s.NotEmpty(id)
	s.Equal(BasePath+"/"+id, rec.Header().Get("Location"))
	s.JSONEq(`{"a":1}`, rec.Body.String())
	s.Equal(1, s.store.Len())
}

func (s *ServerTestSuite) TestUnknownID() {
	_, err := s.client.Get(s.ctx, "missing")
	s.ErrorIs(err, storage.ErrBlobNotFound)

	err = s.client.Put(s.ctx, "missing", []byte(`{}`))
	s.ErrorIs(err, storage.ErrBlobNotFound)
}

func (s *ServerTestSuite) TestRejectsInvalidDocuments() {
	rec := s.do(http.MethodPost, BasePath, `not json`)
	s.Equal(http.StatusBadRequest, rec.Code)

	big := `"` + strings.Repeat("x", MaxDocumentSize) + `"`
	rec = s.do(http.MethodPost, BasePath, big)
	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Zero(s.store.Len())
}

func (s *ServerTestSuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"ok"`)

	s.do(http.MethodGet, BasePath+"/missing", "")

	resp, err := http.Get(s.ts.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `blobserver_requests_total{method="GET",status="404"}`)
}

func (s *ServerTestSuite) TestStoreFailure() {
	ctrl := gomock.NewController(s.T())
	store := mock_storage.NewMockBlobStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "abc").Return(nil, errors.New("disk on fire"))
	server := NewServer(store, time.Hour, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, BasePath+"/abc", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "disk on fire")

	// a store that cannot expire documents is never swept
	s.False(server.StartSweeper(s.ctx))
	s.NoError(server.Sweep(s.ctx))
}

func (s *ServerTestSuite) TestSweep() {
	server := NewServer(s.store, time.Millisecond, logging.NewNop())
	_, err := s.store.Create(s.ctx, []byte(`{}`))
	s.Require().NoError(err)

	time.Sleep(5 * time.Millisecond)
	s.Require().NoError(server.Sweep(s.ctx))
	s.Zero(s.store.Len())

	disabled := NewServer(s.store, 0, logging.NewNop())
	s.False(disabled.StartSweeper(s.ctx))
}

func (s *ServerTestSuite) TestStartSweeper() {
	s.True(s.server.StartSweeper(s.ctx))

	// the first sweep runs immediately and keeps fresh documents
	id, err := s.store.Create(s.ctx, []byte(`{}`))
	s.Require().NoError(err)
	time.Sleep(10 * time.Millisecond)
	_, err = s.store.Get(s.ctx, id)
	s.NoError(err)
}

func TestSweepInterval(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		24 * time.Hour:         time.Hour,
		2 * time.Hour:          30 * time.Minute,
		time.Second:            time.Second,
		100 * time.Millisecond: time.Second,
	}
	for maxAge, want := range cases {
		if got := sweepInterval(maxAge); got != want {
			t.Errorf("sweepInterval(%s) = %s, want %s", maxAge, got, want)
		}
	}
}

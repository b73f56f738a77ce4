package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/fitquest/internal/events"
	"anoa.com/fitquest/internal/modules/league/dto"
	"anoa.com/fitquest/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	err   error
	joins []dto.JoinLeagueRequest
}

func (s *stubService) Join(_ context.Context, _ uuid.UUID, req dto.JoinLeagueRequest) (*dto.LeagueStateResponse, error) {
	s.joins = append(s.joins, req)
	return &dto.LeagueStateResponse{UserRank: 1}, s.err
}

func (s *stubService) GetState(context.Context, uuid.UUID) (*dto.LeagueStateResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.LeagueStateResponse{UserRank: 4}, nil
}

func (s *stubService) RecomputeStandings(_ context.Context, id uuid.UUID) (*dto.RecomputeResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RecomputeResponse{CohortID: id}, nil
}

func (s *stubService) AddPoints(context.Context, uuid.UUID, int) error         { return nil }
func (s *stubService) Rollover(context.Context) (int, error)                   { return 0, nil }
func (s *stubService) HandleLeagueChanged(context.Context, events.Event) error { return nil }

func newRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLeagueHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.NewString())
		c.Next()
	})
	r.POST("/api/leagues/join", h.Join)
	r.GET("/api/leagues/me", h.GetMyLeague)
	r.POST("/api/leagues/cohorts/:id/standings", h.RecomputeStandings)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJoin(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/leagues/join", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/leagues/join", `{"tier":"gold"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/leagues/join", `{"tier":"mithril"}`).Code)

	if assert.Len(t, svc.joins, 2) {
		assert.Equal(t, "", svc.joins[0].Tier)
		assert.Equal(t, "gold", svc.joins[1].Tier)
	}
}

func TestGetMyLeague(t *testing.T) {
	assert.Equal(t, http.StatusOK, do(newRouter(&stubService{}), http.MethodGet, "/api/leagues/me", "").Code)

	w := do(newRouter(&stubService{err: apperror.ErrNotLeagueMember}), http.MethodGet, "/api/leagues/me", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperror.ErrNotLeagueMember.Error())
}

func TestRecomputeStandings(t *testing.T) {
	r := newRouter(&stubService{})
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/leagues/cohorts/not-a-uuid/standings", "").Code)

	id := uuid.NewString()
	w := do(r, http.MethodPost, "/api/leagues/cohorts/"+id+"/standings", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	missing := newRouter(&stubService{err: apperror.ErrNotFound})
	assert.Equal(t, http.StatusNotFound, do(missing, http.MethodPost, "/api/leagues/cohorts/"+id+"/standings", "").Code)
}

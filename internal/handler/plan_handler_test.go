package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/tuition-api/internal/dto"
	"github.com/acadops/tuition-api/internal/models"
	appErrors "github.com/acadops/tuition-api/pkg/errors"
)

type plannerMock struct {
	regenResp  *dto.PlanResponse
	regenErr   error
	toggleResp *dto.PlanResponse
	toggleErr  error
	getResp    *dto.PlanResponse
	getErr     error
	plansResp  []models.StudentMonthlyPlan
	plansErr   error
	gotPlanID  string
}

func (m *plannerMock) Regenerate(ctx context.Context, req dto.RegeneratePlanRequest) (*dto.PlanResponse, error) {
	if m.regenErr != nil {
		return nil, m.regenErr
	}
	return m.regenResp, nil
}

func (m *plannerMock) ToggleDate(ctx context.Context, planID string, req dto.ToggleDateRequest) (*dto.PlanResponse, error) {
	m.gotPlanID = planID
	if m.toggleErr != nil {
		return nil, m.toggleErr
	}
	return m.toggleResp, nil
}

func (m *plannerMock) GetPlan(ctx context.Context, planID string) (*dto.PlanResponse, error) {
	m.gotPlanID = planID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *plannerMock) Plans(ctx context.Context, planID string) ([]models.StudentMonthlyPlan, error) {
	m.gotPlanID = planID
	if m.plansErr != nil {
		return nil, m.plansErr
	}
	return m.plansResp, nil
}

type committerMock struct {
	result    *dto.CommitResult
	err       error
	got       []models.StudentMonthlyPlan
	records   []models.TuitionLedgerRecord
	stmtErr   error
	gotPeriod models.BillingPeriod
}

func (m *committerMock) Commit(ctx context.Context, plans []models.StudentMonthlyPlan) (*dto.CommitResult, error) {
	m.got = plans
	if m.err != nil {
		return m.result, m.err
	}
	return m.result, nil
}

func (m *committerMock) Statement(ctx context.Context, studentID string, period models.BillingPeriod) ([]models.TuitionLedgerRecord, error) {
	m.gotPeriod = period
	if m.stmtErr != nil {
		return nil, m.stmtErr
	}
	return m.records, nil
}

func planTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestPlanHandlerRegenerate(t *testing.T) {
	planner := &plannerMock{regenResp: &dto.PlanResponse{PlanID: "p1", Version: 1}}
	h := &PlanHandler{planner: planner, commits: &committerMock{}}

	c, w := planTestContext(t, http.MethodPost, "/plans/regenerate", dto.RegeneratePlanRequest{
		Year:      2024,
		Month:     1,
		Selection: []dto.StudentSelection{{StudentID: "s1", ClassID: "class-math"}},
	})
	h.Regenerate(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.PlanResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "p1", envelope.Data.PlanID)
}

func TestPlanHandlerRegenerateInvalidBody(t *testing.T) {
	h := &PlanHandler{planner: &plannerMock{}, commits: &committerMock{}}

	c, w := planTestContext(t, http.MethodPost, "/plans/regenerate", nil)
	c.Request.Body = http.NoBody
	h.Regenerate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanHandlerTogglePassesPlanID(t *testing.T) {
	planner := &plannerMock{toggleResp: &dto.PlanResponse{PlanID: "p1"}}
	h := &PlanHandler{planner: planner, commits: &committerMock{}}

	c, w := planTestContext(t, http.MethodPost, "/plans/p1/toggle", dto.ToggleDateRequest{Date: "2024-01-08"})
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.Toggle(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", planner.gotPlanID)
}

func TestPlanHandlerGetExpired(t *testing.T) {
	planner := &plannerMock{getErr: appErrors.Clone(appErrors.ErrPlanExpired, "")}
	h := &PlanHandler{planner: planner, commits: &committerMock{}}

	c, w := planTestContext(t, http.MethodGet, "/plans/p1", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.Get(c)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestPlanHandlerCommit(t *testing.T) {
	planner := &plannerMock{plansResp: []models.StudentMonthlyPlan{{StudentID: "s1", ClassID: "class-math"}}}
	commits := &committerMock{result: &dto.CommitResult{Created: 8}}
	h := &PlanHandler{planner: planner, commits: commits}

	c, w := planTestContext(t, http.MethodPost, "/plans/p1/commit", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.Commit(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, commits.got, 1)
	var envelope struct {
		Data dto.CommitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 8, envelope.Data.Created)
}

func TestPlanHandlerCommitPartialFailure(t *testing.T) {
	planner := &plannerMock{plansResp: []models.StudentMonthlyPlan{{StudentID: "s1", ClassID: "class-math"}}}
	commits := &committerMock{
		result: &dto.CommitResult{Created: 3},
		err:    appErrors.Clone(appErrors.ErrCommitFailed, ""),
	}
	h := &PlanHandler{planner: planner, commits: commits}

	c, w := planTestContext(t, http.MethodPost, "/plans/p1/commit", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.Commit(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var envelope struct {
		Data  dto.CommitResult `json:"data"`
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 3, envelope.Data.Created)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrCommitFailed.Code, envelope.Error.Code)
}

func TestPlanHandlerStatement(t *testing.T) {
	commits := &committerMock{records: []models.TuitionLedgerRecord{{ID: "l1", StudentID: "s1"}}}
	h := &PlanHandler{planner: &plannerMock{}, commits: commits}

	c, w := planTestContext(t, http.MethodGet, "/students/s1/ledger?year=2024&month=1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Statement(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BillingPeriod{Year: 2024, Month: 1}, commits.gotPeriod)
	var envelope struct {
		Data []models.TuitionLedgerRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "l1", envelope.Data[0].ID)
}

func TestPlanHandlerStatementMissingPeriod(t *testing.T) {
	h := &PlanHandler{planner: &plannerMock{}, commits: &committerMock{}}

	c, w := planTestContext(t, http.MethodGet, "/students/s1/ledger", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.Statement(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanHandlerCommitEmptySelection(t *testing.T) {
	planner := &plannerMock{plansErr: appErrors.Clone(appErrors.ErrEmptySelection, "")}
	h := &PlanHandler{planner: planner, commits: &committerMock{}}

	c, w := planTestContext(t, http.MethodPost, "/plans/p1/commit", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.Commit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"plantsim/internal/models"
	"plantsim/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockControl struct {
	startErr      error
	stopErr       error
	triggerErr    error
	lastTriggered string
	startCalled   int
	stopCalled    int
	triggerCalls  int
}

func (m *mockControl) Start(ctx context.Context) error {
	m.startCalled++
	return m.startErr
}
func (m *mockControl) Stop(ctx context.Context) error {
	m.stopCalled++
	return m.stopErr
}
func (m *mockControl) TriggerMachine(ctx context.Context, id string) error {
	m.triggerCalls++
	m.lastTriggered = id
	return m.triggerErr
}

type mockBatches struct {
	advanceErr  error
	retryErr    error
	getSnap     models.BatchSnapshot
	getErr      error
	lastBatch   string
	lastMachine string
	lastParams  service.StageParams
}

func (m *mockBatches) AdvanceStage(ctx context.Context, batchID, machineID string, p service.StageParams) error {
	m.lastBatch, m.lastMachine, m.lastParams = batchID, machineID, p
	return m.advanceErr
}
func (m *mockBatches) RetryStage(ctx context.Context, batchID, machineID string) error {
	m.lastBatch, m.lastMachine = batchID, machineID
	return m.retryErr
}
func (m *mockBatches) Get(ctx context.Context, batchID string) (models.BatchSnapshot, error) {
	m.lastBatch = batchID
	return m.getSnap, m.getErr
}

type mockMonitoring struct {
	snap       models.PlantSnapshot
	err        error
	machine    models.MachineSnapshot
	machineErr error
}

func (m *mockMonitoring) Snapshot(ctx context.Context) (models.PlantSnapshot, error) {
	return m.snap, m.err
}
func (m *mockMonitoring) MachineSnapshot(ctx context.Context, id string) (models.MachineSnapshot, error) {
	return m.machine, m.machineErr
}

type mockEventLog struct {
	resp     []models.PlantEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PlantEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockClock struct{}

func (m *mockClock) Run(ctx context.Context, tick time.Duration) {}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

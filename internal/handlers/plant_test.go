package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"plantsim/internal/models"
	"plantsim/internal/service"
	"plantsim/internal/sim"
)

func TestPlantHandlers_StartStopStateTrigger(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{snap: models.PlantSnapshot{
		EngineState: models.EngineRunning,
		Tick:        3,
		Machines: []models.MachineSnapshot{
			{ID: "furnace-1", Kind: models.KindFurnace, State: models.StateRunning, Progress: 0.4, Cycles: 2},
		},
	}}
	ctrl := &mockControl{}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
		Control:       ctrl,
	}
	r := newTestRouter(s)

	// GET state requires auth -> 401 without header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plant/state", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth -> 200 and snapshot body
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/plant/state", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var snap models.PlantSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.EngineState != models.EngineRunning || len(snap.Machines) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Machines[0].Progress != 0.4 {
		t.Fatalf("machine progress = %v, want 0.4", snap.Machines[0].Progress)
	}

	// POST /start -> 200, calls Control.Start and includes state
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/plant/start", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d, body=%s", w.Code, w.Body.String())
	}
	if ctrl.startCalled != 1 {
		t.Fatalf("expected Start to be called once, got %d", ctrl.startCalled)
	}
	var resp struct {
		Status string               `json:"status"`
		State  models.PlantSnapshot `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusStarted {
		t.Fatalf("expected status %q, got %q", statusStarted, resp.Status)
	}
	if resp.State.Tick != 3 {
		t.Fatalf("state missing/invalid in response: %+v", resp.State)
	}

	// POST trigger -> 200, passes machine id
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/machines/furnace-1/trigger", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("trigger status=%d, body=%s", w.Code, w.Body.String())
	}
	if ctrl.triggerCalls != 1 || ctrl.lastTriggered != "furnace-1" {
		t.Fatalf("trigger calls=%d last=%q", ctrl.triggerCalls, ctrl.lastTriggered)
	}

	// POST /stop -> 200
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/plant/stop", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stop status=%d, body=%s", w.Code, w.Body.String())
	}
	if ctrl.stopCalled != 1 {
		t.Fatalf("expected Stop to be called once, got %d", ctrl.stopCalled)
	}
}

func TestPlantHandlers_TriggerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{sim.ErrEngineNotRunning, http.StatusConflict},
		{sim.ErrAlreadyRunning, http.StatusConflict},
		{sim.ErrDependencyUnsatisfied, http.StatusConflict},
		{sim.ErrMachineBlocked, http.StatusConflict},
		{sim.ErrUnknownMachine, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			s := &service.Service{
				Authorization: &mockAuth{parseID: 1},
				Monitoring:    &mockMonitoring{},
				Control:       &mockControl{triggerErr: fmt.Errorf("machine cnc-1: %w", tc.err)},
			}
			r := newTestRouter(s)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/machines/cnc-1/trigger", nil)
			for k, vv := range authHeader("valid") {
				for _, v := range vv {
					req.Header.Add(k, v)
				}
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.code, w.Body.String())
			}
		})
	}
}

func TestPlantHandlers_GetMachine(t *testing.T) {
	mon := &mockMonitoring{machine: models.MachineSnapshot{
		ID: "lpdc-1", Kind: models.KindLPDC, State: models.StateComplete, Progress: 1, Cycles: 5,
	}}
	s := &service.Service{
		Authorization: &mockAuth{parseID: 1},
		Monitoring:    mon,
	}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/machines/lpdc-1", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("machine status=%d, body=%s", w.Code, w.Body.String())
	}
	var snap models.MachineSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.ID != "lpdc-1" || snap.Cycles != 5 {
		t.Fatalf("unexpected machine snapshot: %+v", snap)
	}

	// unknown machine -> 404
	mon.machineErr = sim.ErrUnknownMachine
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/machines/ghost", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown machine status=%d, want 404", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

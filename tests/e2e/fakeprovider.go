//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FakeProvider stands in for the external generation API. Tasks resolve
// after a couple of polls; a prompt containing "[fail]" makes the task fail
// so error paths can be exercised end to end.
type FakeProvider struct {
	server *httptest.Server

	mu    sync.Mutex
	tasks map[string]*fakeTask
}

type fakeTask struct {
	prompt   string
	kind     string
	polls    int
	wantFail bool
}

const fakeProviderReadyAfterPolls = 2

func NewFakeProvider() *FakeProvider {
	p := &FakeProvider{tasks: make(map[string]*fakeTask)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/jobs/createTask", p.handleCreateTask)
	mux.HandleFunc("GET /api/v1/jobs/recordInfo", p.handleRecordInfo)

	p.server = httptest.NewServer(mux)
	return p
}

func (p *FakeProvider) URL() string {
	return p.server.URL
}

func (p *FakeProvider) Close() {
	p.server.Close()
}

func (p *FakeProvider) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
		Input struct {
			Prompt   string `json:"prompt"`
			Duration int    `json:"duration"`
		} `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"code": 400, "msg": "bad request"})
		return
	}

	kind := "image"
	if strings.HasPrefix(req.Model, "kling") {
		kind = "video"
	}

	taskID := uuid.NewString()
	p.mu.Lock()
	p.tasks[taskID] = &fakeTask{
		prompt:   req.Input.Prompt,
		kind:     kind,
		wantFail: strings.Contains(req.Input.Prompt, "[fail]"),
	}
	p.mu.Unlock()

	writeJSON(w, map[string]any{
		"code": 200,
		"msg":  "ok",
		"data": map[string]any{"taskId": taskID},
	})
}

func (p *FakeProvider) handleRecordInfo(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("taskId")

	p.mu.Lock()
	task, ok := p.tasks[taskID]
	if ok {
		task.polls++
	}
	p.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"code": 404, "msg": "task not found"})
		return
	}

	data := map[string]any{"taskId": taskID}
	switch {
	case task.polls < fakeProviderReadyAfterPolls:
		data["state"] = "generating"
	case task.wantFail:
		data["state"] = "fail"
		data["failMsg"] = "content policy violation"
	default:
		mime := "image/png"
		ext := "png"
		if task.kind == "video" {
			mime = "video/mp4"
			ext = "mp4"
		}
		resultJSON, _ := json.Marshal(map[string]any{
			"resultUrls": []string{fmt.Sprintf("https://cdn.fake-provider.test/%s.%s", taskID, ext)},
			"mime":       mime,
		})
		data["state"] = "success"
		data["resultJson"] = string(resultJSON)
	}

	writeJSON(w, map[string]any{"code": 200, "msg": "ok", "data": data})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

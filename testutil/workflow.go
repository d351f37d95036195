package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// WorkflowReply scripts one response of the fake workflow endpoint
type WorkflowReply struct {
	Status int           // defaults to 200
	Body   string        // raw response body
	Delay  time.Duration // wait before answering
	Hang   bool          // never answer; the client has to give up
}

// WorkflowRequest is a decoded chat request received by the fake endpoint
type WorkflowRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Language  string `json:"language"`
}

// WorkflowServer is a fake assistant workflow endpoint. POSTs consume the
// scripted replies in order, repeating the last one; GET and OPTIONS probes
// answer with ProbeStatus.
type WorkflowServer struct {
	*httptest.Server

	mu          sync.Mutex
	replies     []WorkflowReply
	requests    []WorkflowRequest
	probes      int
	probeStatus int
	probeHang   bool
	release     chan struct{}
}

// NewWorkflowServer starts a fake endpoint closed when the test ends
func NewWorkflowServer(t *testing.T, replies ...WorkflowReply) *WorkflowServer {
	t.Helper()
	ws := &WorkflowServer{
		replies:     replies,
		probeStatus: http.StatusMethodNotAllowed,
		release:     make(chan struct{}),
	}
	ws.Server = httptest.NewServer(http.HandlerFunc(ws.handle))
	t.Cleanup(func() {
		close(ws.release)
		ws.Server.Close()
	})
	return ws
}

// SetProbe changes how probes are answered
func (ws *WorkflowServer) SetProbe(status int, hang bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.probeStatus = status
	ws.probeHang = hang
}

// Requests returns the chat requests received so far
func (ws *WorkflowServer) Requests() []WorkflowRequest {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]WorkflowRequest, len(ws.requests))
	copy(out, ws.requests)
	return out
}

// Probes returns how many probes were received
func (ws *WorkflowServer) Probes() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.probes
}

func (ws *WorkflowServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ws.mu.Lock()
		ws.probes++
		status, hang := ws.probeStatus, ws.probeHang
		ws.mu.Unlock()
		if hang {
			ws.wait(r, 0, true)
			return
		}
		w.WriteHeader(status)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var req WorkflowRequest
	_ = json.Unmarshal(body, &req)

	ws.mu.Lock()
	ws.requests = append(ws.requests, req)
	reply := WorkflowReply{Body: `{"output":"ok"}`}
	if len(ws.replies) > 0 {
		reply = ws.replies[0]
		if len(ws.replies) > 1 {
			ws.replies = ws.replies[1:]
		}
	}
	ws.mu.Unlock()

	if !ws.wait(r, reply.Delay, reply.Hang) {
		return
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}

// wait blocks for delay, or forever when hang is set, and reports whether
// the handler should still answer
func (ws *WorkflowServer) wait(r *http.Request, delay time.Duration, hang bool) bool {
	if !hang && delay <= 0 {
		return true
	}
	var timer <-chan time.Time
	if !hang {
		timer = time.After(delay)
	}
	select {
	case <-timer:
		return true
	case <-r.Context().Done():
		return false
	case <-ws.release:
		return false
	}
}

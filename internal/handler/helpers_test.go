package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/digital-menu/api/internal/middleware"
)

const testDevice = "dev-test000001"

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return doDeviceRequest(t, router, testDevice, method, path, body)
}

func doDeviceRequest(t *testing.T, router http.Handler, deviceID, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if deviceID != "" {
		req.Header.Set(mw.DeviceHeader, deviceID)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Fake publisher ---

type publishedEvent struct {
	room      string
	eventType string
	payload   any
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(room, eventType string, payload any) {
	f.events = append(f.events, publishedEvent{room: room, eventType: eventType, payload: payload})
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdapi/internal/config"
	"pgdapi/internal/engine"
)

type webhookReceiver struct {
	mu       sync.Mutex
	fail     bool
	events   []EventResponse
	headers  []http.Header
	requests int
}

func (r *webhookReceiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	if r.fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	data, _ := io.ReadAll(req.Body)
	var evt EventResponse
	if err := json.Unmarshal(data, &evt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.events = append(r.events, evt)
	r.headers = append(r.headers, req.Header.Clone())
	w.WriteHeader(http.StatusNoContent)
}

func (r *webhookReceiver) received() []EventResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventResponse(nil), r.events...)
}

func TestWebhookDispatcherDeliversNewEvents(t *testing.T) {
	srv := newTestServer(t)
	receiver := &webhookReceiver{}
	hook := httptest.NewServer(receiver)
	t.Cleanup(hook.Close)

	d := NewWebhookDispatcher(srv.Engine, []config.WebhookConfig{
		{URL: hook.URL, Events: []string{"work_plan.created", "work_plan.updated"}, Secret: "s3cret"},
	}, nil)
	ctx := context.Background()

	// The first pass only positions the cursor; the user.created event from
	// setup is never sent.
	d.DispatchOnce(ctx)
	assert.Empty(t, receiver.received())

	token := srv.login(t, "unit1@example.org", "unit1-password")
	res, data := srv.doJSON(t, http.MethodPut, "/unit/1/work_plan/555", workPlanBody(), token)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	res, data = srv.doJSON(t, http.MethodPut, "/organization/10/delivery_plan/1", deliveryPlanBody(1, "2023-01-01", "2023-06-30"), token)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))

	d.DispatchOnce(ctx)
	got := receiver.received()
	require.Len(t, got, 1)
	assert.Equal(t, "work_plan.created", got[0].Type)
	assert.Equal(t, "1/555", got[0].EntityID)
	assert.Equal(t, "work_plan.created", receiver.headers[0].Get("X-PGD-Event"))
	assert.Equal(t, "s3cret", receiver.headers[0].Get("X-PGD-Secret"))

	d.DispatchOnce(ctx)
	assert.Len(t, receiver.received(), 1)
}

func TestWebhookDispatcherRetriesAfterFailure(t *testing.T) {
	srv := newTestServer(t)
	receiver := &webhookReceiver{fail: true}
	hook := httptest.NewServer(receiver)
	t.Cleanup(hook.Close)

	d := NewWebhookDispatcher(srv.Engine, []config.WebhookConfig{{URL: hook.URL}}, nil)
	ctx := context.Background()
	d.DispatchOnce(ctx)

	root := mustUser(t, srv, "root@example.org")
	_, err := srv.Engine.RegisterUser(ctx, engine.PrincipalFor(root), engine.NewUser{
		Email: "unit3@example.org", Password: "unit3-password", UnitCode: 3, OrgCode: 30,
	})
	require.NoError(t, err)

	d.DispatchOnce(ctx)
	assert.Empty(t, receiver.received())

	receiver.mu.Lock()
	receiver.fail = false
	receiver.mu.Unlock()

	d.DispatchOnce(ctx)
	got := receiver.received()
	require.Len(t, got, 1)
	assert.Equal(t, "user.created", got[0].Type)
	assert.Equal(t, 2, receiver.requests)
}

func TestWebhookDispatcherSkipsDisabledHooks(t *testing.T) {
	srv := newTestServer(t)
	receiver := &webhookReceiver{}
	hook := httptest.NewServer(receiver)
	t.Cleanup(hook.Close)

	disabled := false
	d := NewWebhookDispatcher(srv.Engine, []config.WebhookConfig{{URL: hook.URL, Enabled: &disabled}}, nil)
	d.DispatchOnce(context.Background())
	d.DispatchOnce(context.Background())
	assert.Zero(t, receiver.requests)
}

func TestEventFilter(t *testing.T) {
	all := newEventFilter([]string{" ", ""})
	assert.True(t, all.match("anything"))

	some := newEventFilter([]string{"user.created"})
	assert.True(t, some.match("user.created"))
	assert.False(t, some.match("table.truncated"))
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mittwald/mittcheck/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingEvent() Event {
	prev := value.NewSnapshot(map[string]value.Value{"status": value.String("ok")})
	next := value.ErrorSnapshot("boom")
	return Event{
		Cycle:    "c1",
		Check:    "web",
		At:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Changes:  value.Diff(prev, next),
		Snapshot: next,
		Previous: prev,
	}
}

func TestEventState(t *testing.T) {
	ev := failingEvent()
	assert.True(t, ev.Failing())
	assert.False(t, ev.Recovered())

	ev.Previous, ev.Snapshot = ev.Snapshot, ev.Previous
	assert.False(t, ev.Failing())
	assert.True(t, ev.Recovered())
}

func TestRenderDefaultTemplate(t *testing.T) {
	tpl, err := parseTemplate("test", "")
	require.NoError(t, err)

	text, err := render(tpl, failingEvent())
	require.NoError(t, err)
	assert.Equal(t, "FAILING web\nadded error: \"boom\"\nremoved status", text)
}

func TestRenderSprigTemplate(t *testing.T) {
	t.Setenv("MITTCHECK_SITE", "fra1")

	tpl, err := parseTemplate("test", `{{ .Event.Check | upper }}@{{ .Env.MITTCHECK_SITE }}: {{ .Snapshot.error | quote }}`)
	require.NoError(t, err)

	text, err := render(tpl, failingEvent())
	require.NoError(t, err)
	assert.Equal(t, `WEB@fra1: "boom"`, text)
}

func TestWebhook(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, `{{ .Event.Check }} has {{ len .Event.Changes }} changes`, 0)
	require.NoError(t, err)
	require.NoError(t, w.Notify(context.Background(), failingEvent()))

	assert.Equal(t, "web has 2 changes", got.Text)
	assert.Equal(t, "web", got.Event.Check)
	assert.Equal(t, "c1", got.Event.Cycle)
	require.Len(t, got.Event.Changes, 2)
	assert.Equal(t, value.ChangeAdded, got.Event.Changes[0].Kind)
	msg, ok := got.Event.Snapshot.Error()
	assert.True(t, ok)
	assert.Equal(t, "boom", msg)
}

func TestWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, "", time.Second)
	require.NoError(t, err)

	err = w.Notify(context.Background(), failingEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookInvalidTemplate(t *testing.T) {
	_, err := NewWebhook("http://localhost", "{{ .Event.Check", 0)
	assert.Error(t, err)
}

func TestMulti(t *testing.T) {
	errFirst := errors.New("first")
	var calls []string

	m := Multi{
		Func(func(ctx context.Context, ev Event) error {
			calls = append(calls, "a")
			return errFirst
		}),
		nil,
		Func(func(ctx context.Context, ev Event) error {
			calls = append(calls, "b")
			return errors.New("second")
		}),
		Func(func(ctx context.Context, ev Event) error {
			calls = append(calls, "c")
			return nil
		}),
	}

	err := m.Notify(context.Background(), failingEvent())
	assert.ErrorIs(t, err, errFirst)
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	assert.NoError(t, Multi{}.Notify(context.Background(), failingEvent()))
}

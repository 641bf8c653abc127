package logging

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestFromContext(t *testing.T) {
	buf := captureLog(t)

	ctx := WithUserID(WithRequestID(context.Background(), "rid-1"), "user-9")
	l := FromContext(ctx)
	l.Error("tasks.add", errors.New("boom"))
	l.Infof("tasks.load", "count=%d", 3)

	out := buf.String()
	assert.Contains(t, out, "[error] request_id=rid-1 user=user-9 operation=tasks.add error=boom")
	assert.Contains(t, out, "[info] request_id=rid-1 user=user-9 operation=tasks.load count=3")
}

func TestFromContextWithoutRequestID(t *testing.T) {
	buf := captureLog(t)

	FromContext(context.Background()).Warn("worker", "no request")
	assert.Contains(t, buf.String(), "request_id=unknown")
	assert.Equal(t, "", RequestID(context.Background()))
}

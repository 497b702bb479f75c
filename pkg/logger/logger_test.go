package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("whatever"))
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo, Format: FormatJSON})

	l.With(Username("alice")).Info("state saved", Topic("Algebra"), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "state saved", entry["msg"])
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, "Algebra", entry["topic"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelWarn})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Format: FormatText})

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")
	assert.NotNil(t, FromContext(context.Background()))
}

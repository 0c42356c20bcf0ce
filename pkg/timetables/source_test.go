package timetables

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyClient struct {
	failures int
	calls    int
	body     string
}

func (c *flakyClient) FetchText(ctx context.Context, url string) ([]byte, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("HTTP 502")
	}

	return []byte(c.body), nil
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbound.txt")
	require.NoError(t, os.WriteFile(path, []byte(scenarioTimetable), 0644))

	text, err := (&FileSource{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scenarioTimetable, text)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing.txt")}).Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBundledSource(t *testing.T) {
	text, err := BundledSource().Fetch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestHTTPSource_RetriesUntilSuccess(t *testing.T) {
	cli := &flakyClient{failures: 1, body: scenarioTimetable}

	text, err := NewHTTPSource(cli, "http://timetables.local/inbound").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scenarioTimetable, text)
	assert.Equal(t, 2, cli.calls)
}

func TestHTTPSource_StopsWhenCancelled(t *testing.T) {
	cli := &flakyClient{failures: 100}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(cli, "http://timetables.local/inbound").Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, cli.calls)
}

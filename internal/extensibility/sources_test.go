package extensibility

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	data []string
	err  error
}

func (r *recorder) SubmitDefinition(data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.data = append(r.data, string(data))
	return "job", nil
}

func (r *recorder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.data...)
}

func TestChannelSource(t *testing.T) {
	ch := make(chan []byte, 3)
	ch <- []byte("a")
	ch <- []byte("b")
	close(ch)

	rec := &recorder{}
	err := NewChannelSource(ch, nil).Run(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.received())
}

func TestChannelSource_SubmitErrorsContinue(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte("a")
	close(ch)

	rec := &recorder{err: errors.New("queue full")}
	require.NoError(t, NewChannelSource(ch, nil).Run(context.Background(), rec))
	assert.Empty(t, rec.received())
}

func TestChannelSource_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewChannelSource(make(chan []byte), nil).Run(ctx, &recorder{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirectorySource(t *testing.T) {
	dir := t.TempDir()
	src, err := NewDirectorySource(nil, dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, rec) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pick.yaml"), []byte("name: pick"), 0o644))

	require.Eventually(t, func() bool { return len(rec.received()) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "name: pick", rec.received()[0])

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.NoError(t, src.Close(), "second close")
}

func TestNewDirectorySource_MissingDir(t *testing.T) {
	_, err := NewDirectorySource(nil, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestIsDefinitionFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.yaml":     true,
		"b.YML":      true,
		"c.json":     true,
		"d.toml":     false,
		"e":          false,
		"dir/f.yaml": true,
	} {
		assert.Equal(t, want, IsDefinitionFile(path), path)
	}
}

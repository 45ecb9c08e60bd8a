package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/survey/pkg/adapters/file"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGraph = `start_id: Start
nodes:
  - id: Start
    text: Welcome
    default_next: Q1
  - id: Q1
    text: Continue?
    options:
      "Yes": [Q2]
      "No": [End]
  - id: Q2
    text: Anything else?
`

func writeTestGraph(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "survey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	writeTestGraph(t, dir, testGraph)
	return Config{
		GraphPath: dir,
		Store:     StoreFile,
		StoreDir:  filepath.Join(dir, "sessions"),
		LogLevel:  "error",
	}
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestResolveGraphPath(t *testing.T) {
	dir := t.TempDir()

	_, err := Config{GraphPath: dir}.ResolveGraphPath()
	assert.ErrorContains(t, err, "no graph file")

	path := writeTestGraph(t, dir, testGraph)
	got, err := Config{GraphPath: dir}.ResolveGraphPath()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	got, err = Config{GraphPath: path}.ResolveGraphPath()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = Config{GraphPath: filepath.Join(dir, "missing.yaml")}.ResolveGraphPath()
	assert.ErrorContains(t, err, "graph not found")
}

func TestConfig_LogLevel(t *testing.T) {
	_, err := Config{LogLevel: "loud"}.Logger()
	assert.Error(t, err)

	logger, err := Config{LogLevel: "debug"}.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger, _ := Config{}.Logger()

	t.Run("file", func(t *testing.T) {
		b, err := OpenBackend(ctx, Config{StoreDir: t.TempDir()}, logger)
		require.NoError(t, err)
		assert.IsType(t, &file.Store{}, b.Store)
		assert.Nil(t, b.Locker)
		assert.NoError(t, b.Close())
	})

	t.Run("memory", func(t *testing.T) {
		b, err := OpenBackend(ctx, Config{Store: StoreMemory}, logger)
		require.NoError(t, err)
		require.NoError(t, b.Store.Save(ctx, "s", domain.NewSnapshot(domain.NewState("Start"))))
		assert.NoError(t, b.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		b, err := OpenBackend(ctx, Config{Store: StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "s.db")}, logger)
		require.NoError(t, err)
		defer b.Close()
		require.NoError(t, b.Store.Save(ctx, "s", domain.NewSnapshot(domain.NewState("Start"))))
		ids, err := b.Store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s"}, ids)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		b, err := OpenBackend(ctx, Config{Store: StoreRedis, RedisAddr: mr.Addr()}, logger)
		require.NoError(t, err)
		defer b.Close()
		require.NotNil(t, b.Locker)

		unlock, err := b.Locker.Lock(ctx, "s", time.Second)
		require.NoError(t, err)
		assert.NoError(t, unlock(ctx))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		addr := mr.Addr()
		mr.Close()
		_, err = OpenBackend(ctx, Config{Store: StoreRedis, RedisAddr: addr}, logger)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenBackend(ctx, Config{Store: "tape"}, logger)
		assert.ErrorContains(t, err, "unknown store")
	})

	t.Run("sealed and masked", func(t *testing.T) {
		dir := t.TempDir()
		key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
		b, err := OpenBackend(ctx, Config{StoreDir: dir, EncryptionKey: key, MaskNodes: []string{"^email$"}}, logger)
		require.NoError(t, err)

		s := domain.NewState("Q1")
		s.Answers.Texts["email"] = "jdoe@example.com"
		require.NoError(t, b.Store.Save(ctx, "s", domain.NewSnapshot(s)))

		raw, err := file.NewStore(dir).Load(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, middleware.EnvelopeNodeID, raw.CurrentNodeID)
		assert.NotContains(t, raw.Answers.Texts, "email")

		loaded, err := b.Store.Load(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, "Q1", loaded.CurrentNodeID)
		assert.Equal(t, "***", loaded.Answers.Texts["email"])
	})

	t.Run("bad key", func(t *testing.T) {
		_, err := OpenBackend(ctx, Config{Store: StoreMemory, EncryptionKey: "c2hvcnQ="}, logger)
		assert.ErrorContains(t, err, "32 bytes")
	})

	t.Run("bad mask", func(t *testing.T) {
		_, err := OpenBackend(ctx, Config{Store: StoreMemory, MaskNodes: []string{"("}}, logger)
		assert.ErrorContains(t, err, "mask pattern")
	})
}

func TestRunSession_ResumesStoredSession(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var out bytes.Buffer
	err := RunSession(ctx, cfg, RunOptions{SessionID: "s1", Input: strings.NewReader("\nexit\n"), Output: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Session 's1' active.")
	assert.Contains(t, out.String(), "Continue?")

	out.Reset()
	err = RunSession(ctx, cfg, RunOptions{SessionID: "s1", Input: strings.NewReader("No\n"), Output: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Resuming at 'Q1' node...")
	assert.Contains(t, out.String(), "Done.")
	assert.Contains(t, out.String(), "Q1: No")

	out.Reset()
	err = RunSession(ctx, cfg, RunOptions{SessionID: "s1", Fresh: true, Input: strings.NewReader("exit\n"), Output: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Session 's1' active.")
	assert.Contains(t, out.String(), "Welcome")
}

func TestRunSession_StaleSnapshotStartsOver(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	store := file.NewStore(cfg.StoreDir)
	require.NoError(t, store.Save(ctx, "old", domain.NewSnapshot(domain.NewState("Removed"))))

	var out bytes.Buffer
	err := RunSession(ctx, cfg, RunOptions{SessionID: "old", Input: strings.NewReader("exit\n"), Output: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no longer matches the graph")
	assert.Contains(t, out.String(), "Welcome")
}

func TestRunSession_Headless(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	err := RunSession(context.Background(), cfg, RunOptions{Headless: true, Input: strings.NewReader("\nYes\nfine\n\n"), Output: &out})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), ">>>")
	assert.NotContains(t, out.String(), "> ")
	assert.Contains(t, out.String(), "Q2: fine")

	sessions, err := file.NewStore(cfg.StoreDir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions, "anonymous runs are not stored")
}

func TestRunSession_BadGraph(t *testing.T) {
	dir := t.TempDir()
	writeTestGraph(t, dir, "start_id: Nope\nnodes:\n  - id: Start\n")

	err := RunSession(context.Background(), Config{GraphPath: dir, Store: StoreMemory}, RunOptions{Input: strings.NewReader(""), Output: io.Discard})
	assert.Error(t, err)
}

func TestWatchSessionID(t *testing.T) {
	a := WatchSessionID("a/survey.yaml")
	assert.True(t, strings.HasPrefix(a, "watch-"))
	assert.Equal(t, a, WatchSessionID("a/survey.yaml"))
	assert.NotEqual(t, a, WatchSessionID("b/survey.yaml"))
}

func TestRunWatch_ReloadKeepsPosition(t *testing.T) {
	cfg := testConfig(t)
	path, err := cfg.ResolveGraphPath()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in, feed := io.Pipe()
	defer feed.Close()
	out := &syncBuffer{}

	errCh := make(chan error, 1)
	go func() {
		errCh <- RunWatch(ctx, cfg, RunOptions{Input: in, Output: out})
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Welcome") }, 5*time.Second, 20*time.Millisecond)
	_, err = io.WriteString(feed, "\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Continue?") }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(testGraph, "Continue?", "Keep going?", 1)), 0644))

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "Graph changed, reloading...") && strings.Contains(s, "Keep going?")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "Resuming at 'Q1' node...")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRunWatch_RejectsHeadless(t *testing.T) {
	err := RunWatch(context.Background(), testConfig(t), RunOptions{Headless: true})
	assert.ErrorContains(t, err, "--headless")
}

func TestHandleRunError(t *testing.T) {
	assert.NoError(t, handleRunError(nil))
	assert.NoError(t, handleRunError(context.Canceled))
	assert.NoError(t, handleRunError(io.EOF))
	assert.Error(t, handleRunError(assert.AnError))
}

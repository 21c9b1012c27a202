package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/daemon"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

type call struct {
	method string
	pid    uint64
	tid    uint64
	value  int64
}

type fakeClient struct {
	mu     sync.Mutex
	limits rtkit.PolicyLimits
	err    error
	calls  []call
	closed bool
	cfg    *config.RTKitConfig
}

func (f *fakeClient) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeClient) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeClient) PolicyLimits(context.Context) (rtkit.PolicyLimits, error) {
	return f.limits, nil
}

func (f *fakeClient) MakeThreadRealtime(_ context.Context, pid, tid uint64, priority uint32) error {
	return f.record(call{"realtime", pid, tid, int64(priority)})
}

func (f *fakeClient) MakeThreadHighPriority(_ context.Context, pid, tid uint64, nice int32) error {
	return f.record(call{"high", pid, tid, int64(nice)})
}

func (f *fakeClient) ResetKnown(context.Context) error { return f.record(call{method: "reset-known"}) }

func (f *fakeClient) ResetAll(context.Context) error { return f.record(call{method: "reset-all"}) }

func (f *fakeClient) Apply(ctx context.Context, pid, tid uint64, req rtkit.Request) error {
	if req.Kind == rtkit.Realtime {
		return f.MakeThreadRealtime(ctx, pid, tid, req.Priority)
	}
	return f.MakeThreadHighPriority(ctx, pid, tid, req.NiceLevel)
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func newFake() *fakeClient {
	return &fakeClient{limits: rtkit.PolicyLimits{MaxRealtimePriority: 20, MinNiceLevel: -15, RTTimeUSecMax: 200000}}
}

func testRoot(client *fakeClient, status *daemon.Status) *cobra.Command {
	return newRootCmd(deps{
		connect: func(_ context.Context, cfg *config.RTKitConfig) (Client, error) {
			client.cfg = cfg
			return client, nil
		},
		inspect: func(context.Context) (*daemon.Status, error) {
			if status == nil {
				return nil, &rtkit.RemoteUnavailableError{Method: "ListNames", Err: errors.New("no bus")}
			}
			return status, nil
		},
	})
}

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	return executeCommandContext(context.Background(), root, args...)
}

func executeCommandContext(ctx context.Context, root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

// writeConfig writes a config file so tests do not pick up one installed on
// the host.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLimits(t *testing.T) {
	client := newFake()
	path := writeConfig(t, "")

	output, err := executeCommand(testRoot(client, nil), "limits", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, output, "MaxRealtimePriority:")
	assert.Contains(t, output, "20")
	assert.Contains(t, output, "-15")
	assert.Contains(t, output, "200000")
	assert.True(t, client.closed)

	output, err = executeCommand(testRoot(client, nil), "limits", "--json", "--config", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_realtime_priority":20,"min_nice_level":-15,"rttime_usec_max":200000}`, output)
}

func TestFlagsOverrideConfig(t *testing.T) {
	client := newFake()
	path := writeConfig(t, "rtkit:\n  timeout: 2s\n  rttime_usec: 1000\n")

	_, err := executeCommand(testRoot(client, nil), "limits", "--config", path, "--rttime-usec", "5000")
	require.NoError(t, err)
	require.NotNil(t, client.cfg)
	assert.Equal(t, uint64(5000), client.cfg.RTTimeUSec)
	assert.Equal(t, 2*time.Second, client.cfg.Timeout)
}

func TestStatus(t *testing.T) {
	status := &daemon.Status{
		BusName:     rtkit.RTKIT_SERVICE,
		Running:     true,
		Activatable: true,
		UnitName:    daemon.UNIT_NAME,
		LoadState:   "loaded",
		ActiveState: "active",
		SubState:    "running",
	}
	path := writeConfig(t, "")

	output, err := executeCommand(testRoot(newFake(), status), "status", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, output, rtkit.RTKIT_SERVICE)
	assert.Contains(t, output, "active/running (loaded)")

	_, err = executeCommand(testRoot(newFake(), nil), "status", "--config", path)
	require.Error(t, err)
	kind, ok := rtkit.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, rtkit.RemoteUnavailable, kind)
}

func TestRealtime(t *testing.T) {
	client := newFake()
	path := writeConfig(t, "")

	output, err := executeCommand(testRoot(client, nil), "realtime", "--pid", "42", "--tid", "4242", "--priority", "10", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, output, "thread 4242 of process 42 set to realtime priority 10")
	assert.Equal(t, []call{{"realtime", 42, 4242, 10}}, client.recorded())
}

func TestHighDefaultsToCallingThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	client := newFake()
	path := writeConfig(t, "")

	_, err := executeCommand(testRoot(client, nil), "high", "--nice", "-5", "--config", path)
	require.NoError(t, err)

	calls := client.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "high", calls[0].method)
	assert.Equal(t, uint64(0), calls[0].pid)
	assert.Equal(t, int64(-5), calls[0].value)
	assert.Equal(t, rtkit.CurrentThreadID(), calls[0].tid)
}

func TestResetCommands(t *testing.T) {
	client := newFake()
	path := writeConfig(t, "")

	output, err := executeCommand(testRoot(client, nil), "reset-known", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, output, "known threads reset")

	client.err = &rtkit.PermissionDeniedError{Method: rtkit.METHOD_RESET_ALL}
	_, err = executeCommand(testRoot(client, nil), "reset-all", "--config", path)
	require.Error(t, err)
	assert.Contains(t, describeError(err), "Error (permission denied)")
}

func TestApply(t *testing.T) {
	client := newFake()
	path := writeConfig(t, `
promotions:
  - name: audio
    tid: 11
    kind: realtime
    priority: 5
  - name: ui
    tid: 12
    kind: high
    nice: -20
`)

	output, err := executeCommand(testRoot(client, nil), "apply", "--config", path)
	require.Error(t, err, "nice -20 is below the daemon's floor")
	assert.Equal(t, []call{{"realtime", 0, 11, 5}}, client.recorded())
	assert.Contains(t, output, `"type":"promotion.applied"`)
	assert.Contains(t, output, `"type":"promotion.failed"`)
	assert.Contains(t, describeError(err), "priority out of range")
}

func TestWatchNeedsConfigFile(t *testing.T) {
	if _, err := os.Stat(filepath.Join("/etc", config.AppName)); err == nil {
		t.Skip("a system-wide config is installed")
	}
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand(testRoot(newFake(), nil), "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch needs a config file")
}

func TestWatch(t *testing.T) {
	client := newFake()
	path := writeConfig(t, "promotions:\n  - name: audio\n    tid: 21\n    kind: realtime\n    priority: 3\n")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	output, err := executeCommandContext(ctx, testRoot(client, nil), "watch", "--events", "promotion", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, []call{{"realtime", 0, 21, 3}}, client.recorded())
	assert.Contains(t, output, `"type":"promotion.applied"`)
}

func TestWatchRejectsUnknownEventGroup(t *testing.T) {
	client := newFake()
	path := writeConfig(t, "")

	_, err := executeCommand(testRoot(client, nil), "watch", "--events", "promotoin", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event group "promotoin"`)
	assert.Empty(t, client.recorded())
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "Error: boom", describeError(errors.New("boom")))
	assert.Equal(t,
		"Error (rate limited): rtkit: MakeThreadRealtime: rate limited",
		describeError(&rtkit.RateLimitedError{Method: rtkit.METHOD_MAKE_THREAD_REALTIME}))
}

// freeAddr returns a loopback address nothing listens on.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe(t *testing.T) {
	client := newFake()
	addr := freeAddr(t)
	path := writeConfig(t, fmt.Sprintf("api:\n  listen:\n    - %q\n", addr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := executeCommandContext(ctx, testRoot(client, nil), "serve", "--config", path)
		done <- err
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + addr + "/limits")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"max_realtime_priority":20,"min_nice_level":-15,"rttime_usec_max":200000}`, string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(7 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.True(t, client.closed)
}

func TestServeWatchNeedsConfigFile(t *testing.T) {
	if _, err := os.Stat(filepath.Join("/etc", config.AppName)); err == nil {
		t.Skip("a system-wide config is installed")
	}
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand(testRoot(newFake(), nil), "serve", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch needs a config file")
}

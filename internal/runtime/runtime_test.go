package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/danmuck/legacyctl/internal/config"
	"github.com/danmuck/legacyctl/internal/protocol"
	"github.com/danmuck/legacyctl/internal/testutil/testlog"
)

type nullWriter struct {
	mu     sync.Mutex
	writes [][]byte
}

func (w *nullWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (w *nullWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func clientConfig() config.Config {
	return config.Config{
		Name:  "test",
		Mode:  config.ModeClient,
		Proxy: config.ProxyConfig{Server: "localhost:1"},
	}
}

func pipelineConfig() config.Config {
	return config.Config{
		Name:   "test",
		Mode:   config.ModeServer,
		Serial: config.SerialConfig{ThrottleMs: 1},
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	log := testlog.Start(t)
	Reset()
	t.Cleanup(Reset)

	first, err := Build(clientConfig(), log)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	second, err := Build(clientConfig(), log)
	if err != nil {
		t.Fatalf("repeat build failed: %v", err)
	}
	if first != second {
		t.Fatalf("repeat build returned a different context")
	}
}

func TestBuildIdempotentUnderConcurrency(t *testing.T) {
	log := testlog.Start(t)
	Reset()
	t.Cleanup(Reset)

	results := make(chan *Context, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, err := Build(clientConfig(), log)
			if err != nil {
				t.Errorf("build failed: %v", err)
				return
			}
			results <- ctx
		}()
	}
	wg.Wait()
	close(results)

	var first *Context
	for ctx := range results {
		if first == nil {
			first = ctx
		} else if ctx != first {
			t.Fatalf("concurrent builds returned distinct contexts")
		}
	}
}

func TestPipelineFoldsInboundBytes(t *testing.T) {
	log := testlog.Start(t)
	w := &nullWriter{}
	ctx, err := BuildWithWriter(pipelineConfig(), w, log)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer ctx.Shutdown(true)

	req, err := protocol.NewRequest(protocol.KindTmcc2AbsoluteSpeed, 5, 40)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	ctx.TMCCFeed(req.Bytes())

	deadline := time.Now().Add(2 * time.Second)
	for {
		ent, _ := ctx.Store().Get(protocol.ScopeEngine, 5, false)
		if ent != nil {
			if snap := ent.Snapshot(); snap.Fields["speed"] == 40 {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("inbound bytes never reached the state store")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSendWritesThroughQueue(t *testing.T) {
	log := testlog.Start(t)
	w := &nullWriter{}
	ctx, err := BuildWithWriter(pipelineConfig(), w, log)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer ctx.Shutdown(true)

	req, err := protocol.NewRequest(protocol.KindTmcc1RingBell, 7, 0)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	if err := ctx.SendWait(req); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if w.count() != 1 {
		t.Fatalf("port saw %d writes, want 1", w.count())
	}
}

func TestShutdownIsCooperative(t *testing.T) {
	log := testlog.Start(t)
	w := &nullWriter{}
	ctx, err := BuildWithWriter(pipelineConfig(), w, log)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		ctx.Shutdown(false)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("shutdown hung")
	}
}

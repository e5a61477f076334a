package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue("test")

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		q.Async(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	q.Wait()

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("queue order mismatch (-want +got):\n%s", diff)
	}
}

func TestQueueSerializesConcurrentSubmitters(t *testing.T) {
	q := NewQueue("test")

	var active, maxActive int32
	var g errgroup.Group
	for p := 0; p < 8; p++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				q.Async(func() {
					n := atomic.AddInt32(&active, 1)
					for {
						m := atomic.LoadInt32(&maxActive)
						if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
							break
						}
					}
					atomic.AddInt32(&active, -1)
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	q.Wait()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("expected at most one task running at a time, saw %d", got)
	}
	if q.Pending() != 0 {
		t.Errorf("expected drained queue, %d pending", q.Pending())
	}
}

func TestQueueSync(t *testing.T) {
	q := NewQueue("test")
	ran := false
	q.Sync(func() {
		ran = true
	})
	if !ran {
		t.Error("Sync returned before running")
	}
}

func TestQueueRecoversPanic(t *testing.T) {
	q := NewQueue("test")
	q.Async(func() {
		panic("boom")
	})

	done := make(chan struct{})
	q.Async(func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue stopped after a panicking task")
	}
}

func TestQueueLabel(t *testing.T) {
	q1 := NewQueue("hub")
	q2 := NewQueue("hub")
	if q1.Label() == q2.Label() {
		t.Errorf("expected unique labels, both %q", q1.Label())
	}
}

func TestDirectRunsBeforeReturn(t *testing.T) {
	d := NewDirect("test")
	var got []int
	d.Async(func() { got = append(got, 1) })
	d.Sync(func() { got = append(got, 2) })
	d.Wait()
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("direct order (-want +got):\n%s", diff)
	}
}

func TestDirectNestedSubmitRunsAfterCurrentTask(t *testing.T) {
	d := NewDirect("test")
	var got []string
	d.Async(func() {
		got = append(got, "outer start")
		d.Async(func() {
			got = append(got, "nested")
			d.Async(func() { got = append(got, "nested again") })
		})
		got = append(got, "outer end")
	})

	want := []string{"outer start", "outer end", "nested", "nested again"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nested order (-want +got):\n%s", diff)
	}
	if d.Pending() != 0 {
		t.Errorf("expected drained context, %d pending", d.Pending())
	}
}

func TestDirectSerializesConcurrentSubmitters(t *testing.T) {
	d := NewDirect("test")

	var active, maxActive int32
	var count atomic.Int32
	var g errgroup.Group
	for p := 0; p < 8; p++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				d.Async(func() {
					n := atomic.AddInt32(&active, 1)
					if n > atomic.LoadInt32(&maxActive) {
						atomic.StoreInt32(&maxActive, n)
					}
					count.Add(1)
					atomic.AddInt32(&active, -1)
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	d.Wait()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("expected at most one task running at a time, saw %d", got)
	}
	if got := count.Load(); got != 400 {
		t.Errorf("expected 400 tasks run, got %d", got)
	}
}

func TestDirectRecoversPanic(t *testing.T) {
	d := NewDirect("test")
	ran := false
	d.Async(func() {
		d.Async(func() { ran = true })
		panic("boom")
	})
	if !ran {
		t.Error("nested task skipped after a panicking task")
	}

	done := make(chan struct{})
	go func() {
		d.Sync(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("direct context stuck after a panicking task")
	}
}

func TestExecutors(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		ran := false
		Inline.Execute(func() { ran = true })
		if !ran {
			t.Error("inline executor did not run callback")
		}
	})

	t.Run("blocking", func(t *testing.T) {
		q := NewQueue("test")
		ran := false
		Blocking(q).Execute(func() {
			time.Sleep(5 * time.Millisecond)
			ran = true
		})
		if !ran {
			t.Error("blocking executor returned before callback finished")
		}
	})

	t.Run("blocking nil falls back to inline", func(t *testing.T) {
		ran := false
		Blocking(nil).Execute(func() { ran = true })
		if !ran {
			t.Error("expected inline execution")
		}
	})

	t.Run("func", func(t *testing.T) {
		calls := 0
		ex := ExecutorFunc(func(fn func()) {
			calls++
			fn()
		})
		ex.Execute(func() {})
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}

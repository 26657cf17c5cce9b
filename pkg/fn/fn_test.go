package fn

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() {
		t.Fatal("Err should be err")
	}
	if !Err[int](nil).IsOk() {
		t.Fatal("Err(nil) should be ok")
	}
}

func TestFromPair(t *testing.T) {
	n, err := strconv.Atoi("12")
	if v, err := FromPair(n, err).Unwrap(); err != nil || v != 12 {
		t.Fatalf("got %d, %v", v, err)
	}
	n, err = strconv.Atoi("x")
	if r := FromPair(n, err); r.IsOk() {
		t.Fatal("expected err")
	}
}

// --- Option ---

func TestOption(t *testing.T) {
	var zero Option[string]
	if zero.IsSome() {
		t.Fatal("zero Option should be None")
	}
	if v, ok := zero.Get(); ok || v != "" {
		t.Fatalf("zero Get = %q, %v", v, ok)
	}

	o := Some("abc")
	v, ok := o.Get()
	if !ok || v != "abc" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

// --- Matchers ---

func TestFirstMatch_Order(t *testing.T) {
	var calls []string
	mk := func(name string, hit bool) Matcher[string, string] {
		return func(in string) Option[string] {
			calls = append(calls, name)
			if hit {
				return Some(name + ":" + in)
			}
			return None[string]()
		}
	}

	got := FirstMatch("x", mk("a", false), mk("b", true), mk("c", true))
	if v, _ := got.Get(); v != "b:x" {
		t.Fatalf("got %q, want b:x", v)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Fatalf("later matchers evaluated: %v", calls)
	}
}

func TestFirstMatch_None(t *testing.T) {
	never := func(string) Option[int] { return None[int]() }
	if FirstMatch[string, int]("x", never, never).IsSome() {
		t.Fatal("expected None")
	}
	if FirstMatch[string, int]("x").IsSome() {
		t.Fatal("no matchers should be None")
	}
}

func TestChain(t *testing.T) {
	digits := Chain[string, int](
		func(s string) Option[int] {
			if n, err := strconv.Atoi(s); err == nil {
				return Some(n)
			}
			return None[int]()
		},
		func(s string) Option[int] { return Some(len(s)) },
	)
	if v, _ := digits("42").Get(); v != 42 {
		t.Fatalf("got %d", v)
	}
	if v, _ := digits("abcd").Get(); v != 4 {
		t.Fatalf("got %d", v)
	}
}

// --- Slices ---

func TestMapFilterTake(t *testing.T) {
	sq := Map([]int{1, 2, 3}, func(v int) int { return v * v })
	if len(sq) != 3 || sq[2] != 9 {
		t.Fatalf("Map: %v", sq)
	}
	ev := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(ev) != 2 || ev[0] != 2 || ev[1] != 4 {
		t.Fatalf("Filter: %v", ev)
	}
	if got := Take([]int{1, 2, 3}, 2); len(got) != 2 {
		t.Fatalf("Take: %v", got)
	}
	if got := Take([]int{1}, 5); len(got) != 1 {
		t.Fatalf("Take past end: %v", got)
	}
	if got := Take([]int{1}, -1); len(got) != 0 {
		t.Fatalf("Take negative: %v", got)
	}
}

func TestRepeats(t *testing.T) {
	type rec struct {
		line int
		key  string
	}
	items := []rec{{1, "a"}, {2, "b"}, {3, "a"}, {4, "a"}, {5, "b"}, {6, "c"}}
	got := Repeats(items, func(r rec) string { return r.key })
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i, r := range got {
		if r.line != want[i] {
			t.Fatalf("got %v, want lines %v", got, want)
		}
	}
	if Repeats([]rec{}, func(r rec) string { return r.key }) != nil {
		t.Fatal("empty input should give nil")
	}
}

// --- Parallel ---

func TestParMap_PreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	in := []int{5, 4, 3, 2, 1}
	out := ParMap(in, 2, func(v int) string {
		time.Sleep(time.Duration(v) * time.Millisecond)
		return strconv.Itoa(v)
	})
	if strings.Join(out, "") != "54321" {
		t.Fatalf("order lost: %v", out)
	}
	if len(ParMap([]int{}, 0, func(v int) int { return v })) != 0 {
		t.Fatal("empty input should give empty output")
	}
	var running, peak atomic.Int32
	ParMap(make([]int, 20), 3, func(int) int {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return 0
	})
	if peak.Load() > 3 {
		t.Fatalf("peak concurrency %d > 3 workers", peak.Load())
	}
}

// --- Pipeline ---

func TestThen(t *testing.T) {
	double := MapStage(func(v int) int { return v * 2 })
	toStr := MapStage(strconv.Itoa)
	r := Then(double, toStr)(context.Background(), 21)
	if v, err := r.Unwrap(); err != nil || v != "42" {
		t.Fatalf("got %q, %v", v, err)
	}

	fail := Stage[int, int](func(context.Context, int) Result[int] { return Err[int](errors.New("boom")) })
	called := false
	after := Stage[int, string](func(context.Context, int) Result[string] { called = true; return Ok("") })
	if r := Then(fail, after)(context.Background(), 1); r.IsOk() || called {
		t.Fatal("Then should short-circuit")
	}
}

func TestTracedStage(t *testing.T) {
	st := TracedStage("double", MapStage(func(v int) int { return v * 2 }))
	if v, _ := st(context.Background(), 4).Unwrap(); v != 8 {
		t.Fatalf("got %d", v)
	}
	failing := TracedStage("fail", Stage[int, int](func(context.Context, int) Result[int] {
		return Err[int](errors.New("x"))
	}))
	if failing(context.Background(), 1).IsOk() {
		t.Fatal("expected error to propagate")
	}
}

// --- Retry ---

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var n atomic.Int32
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}, func(context.Context) Result[int] {
		if n.Add(1) < 3 {
			return Err[int](errors.New("transient"))
		}
		return Ok(7)
	})
	if v, err := r.Unwrap(); err != nil || v != 7 {
		t.Fatalf("got %d, %v", v, err)
	}
	if n.Load() != 3 {
		t.Fatalf("attempts = %d", n.Load())
	}
}

func TestRetry_NotRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	var n atomic.Int32
	opts := RetryOpts{
		MaxAttempts: 5,
		InitialWait: time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		n.Add(1)
		return Err[int](permanent)
	})
	if _, err := r.Unwrap(); !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
	if n.Load() != 1 {
		t.Fatalf("attempts = %d, want 1", n.Load())
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Retry(ctx, RetryOpts{MaxAttempts: 3, InitialWait: time.Second}, func(context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

package redis

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestLock(t *testing.T, mr *miniredis.Miniredis, ttl time.Duration, log zerolog.Logger) *SubmitLock {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSubmitLock(client, ttl, log)
}

func TestSubmitLock_KeyFormat(t *testing.T) {
	l := NewSubmitLock(nil, 0, zerolog.Nop())
	if got := l.key("p1", "s1"); got != "submit:p1:s1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if l.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", l.ttl)
	}
	if l := NewSubmitLock(nil, 3*time.Second, zerolog.Nop()); l.ttl != 3*time.Second {
		t.Fatalf("expected custom ttl, got %s", l.ttl)
	}
}

func TestSubmitLock_Acquire(t *testing.T) {
	tests := []struct {
		name    string
		held    [][2]string // pairs locked before the attempt
		project string
		student string
		wantOK  bool
	}{
		{name: "free pair", project: "p1", student: "s1", wantOK: true},
		{name: "same pair in flight", held: [][2]string{{"p1", "s1"}}, project: "p1", student: "s1", wantOK: false},
		{name: "other student", held: [][2]string{{"p1", "s1"}}, project: "p1", student: "s2", wantOK: true},
		{name: "other project", held: [][2]string{{"p1", "s1"}}, project: "p2", student: "s1", wantOK: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			l := newTestLock(t, mr, time.Minute, zerolog.Nop())
			ctx := context.Background()

			for _, pair := range tc.held {
				if _, ok, err := l.Acquire(ctx, pair[0], pair[1]); err != nil || !ok {
					t.Fatalf("setup acquire %v: ok=%v err=%v", pair, ok, err)
				}
			}

			release, ok, err := l.Acquire(ctx, tc.project, tc.student)
			if err != nil {
				t.Fatalf("acquire: %v", err)
			}
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && release == nil {
				t.Fatal("expected a release func")
			}
			if !ok && release != nil {
				t.Fatal("expected no release func when the pair is held")
			}
		})
	}
}

func TestSubmitLock_ReleaseFreesPair(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newTestLock(t, mr, time.Minute, zerolog.Nop())
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "p1", "s1")
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("submit:p1:s1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl on lock key: %s", ttl)
	}

	release()
	if mr.Exists("submit:p1:s1") {
		t.Fatal("lock key still present after release")
	}
	if _, ok, err := l.Acquire(ctx, "p1", "s1"); err != nil || !ok {
		t.Fatalf("re-acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestSubmitLock_ExpiredHolderDoesNotReleaseNewOwner(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newTestLock(t, mr, time.Second, zerolog.Nop())
	ctx := context.Background()

	releaseFirst, ok, err := l.Acquire(ctx, "p1", "s1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	mr.FastForward(2 * time.Second)

	releaseSecond, ok, err := l.Acquire(ctx, "p1", "s1")
	if err != nil || !ok {
		t.Fatalf("second acquire after expiry: ok=%v err=%v", ok, err)
	}
	owner, err := mr.Get("submit:p1:s1")
	if err != nil {
		t.Fatalf("get lock key: %v", err)
	}

	releaseFirst()
	got, err := mr.Get("submit:p1:s1")
	if err != nil {
		t.Fatalf("lock taken over by the second request was released by the first: %v", err)
	}
	if got != owner {
		t.Fatalf("lock token changed: %q then %q", owner, got)
	}
	if _, ok, _ := l.Acquire(ctx, "p1", "s1"); ok {
		t.Fatal("pair should still be held by the second request")
	}

	releaseSecond()
	if mr.Exists("submit:p1:s1") {
		t.Fatal("second holder failed to release")
	}
}

func TestSubmitLock_AcquireFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newTestLock(t, mr, time.Minute, zerolog.Nop())
	mr.Close()

	release, ok, err := l.Acquire(context.Background(), "p1", "s1")
	if err == nil {
		t.Fatal("expected an error from an unreachable redis")
	}
	if ok || release != nil {
		t.Fatalf("unexpected lock grant: ok=%v", ok)
	}
}

func TestSubmitLock_ReleaseFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	mr := miniredis.RunT(t)
	l := newTestLock(t, mr, time.Minute, zerolog.New(&buf))

	release, ok, err := l.Acquire(context.Background(), "p1", "s1")
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	mr.Close()
	release()

	out := buf.String()
	if !strings.Contains(out, "submit lock release failed") || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected a warning for the failed release, got %q", out)
	}
	if !strings.Contains(out, `"key":"submit:p1:s1"`) {
		t.Fatalf("expected the key in the warning, got %q", out)
	}
}

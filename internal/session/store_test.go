package session

import (
	"sync"
	"testing"
	"time"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/intake"
	"github.com/fpang/sight-assist/internal/testimage"
	"github.com/google/uuid"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *clock, *int) {
	c := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	created := 0
	s := NewStore(func(id string) *assist.Assistant {
		created++
		return assist.New(assist.Dependencies{}, assist.WithSessionID(id), assist.WithClock(c.Now))
	}, ttl)
	s.now = c.Now
	return s, c, &created
}

func TestGetCreatesSession(t *testing.T) {
	s, _, created := newTestStore(time.Minute)

	id, a := s.Get("")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("session id %q is not a UUID: %v", id, err)
	}
	if a == nil || *created != 1 {
		t.Fatalf("Get() assistant = %v, created = %d", a, *created)
	}

	id2, a2 := s.Get(id)
	if id2 != id || a2 != a {
		t.Error("Get() with existing id returned a different session")
	}
	if *created != 1 {
		t.Errorf("created = %d, want 1", *created)
	}
}

func TestGetIgnoresForeignIDs(t *testing.T) {
	s, _, created := newTestStore(time.Minute)

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		got, _ := s.Get(id)
		if got == id {
			t.Errorf("Get(%q) reused an id the store never issued", id)
		}
	}
	if *created != 2 || s.Len() != 2 {
		t.Errorf("created = %d, Len() = %d; want 2, 2", *created, s.Len())
	}
}

func TestSessionExpiry(t *testing.T) {
	s, c, _ := newTestStore(30 * time.Minute)

	id, a := s.Get("")
	c.Advance(29 * time.Minute)
	if _, ok := s.Lookup(id); !ok {
		t.Fatal("session expired early")
	}

	a.Clear()
	c.Advance(29 * time.Minute)
	if _, ok := s.Lookup(id); !ok {
		t.Fatal("activity did not extend the session")
	}

	c.Advance(2 * time.Minute)
	if _, ok := s.Lookup(id); ok {
		t.Fatal("Lookup() returned an expired session")
	}

	newID, newA := s.Get(id)
	if newID == id || newA == a {
		t.Error("Get() revived an expired session")
	}
}

func TestSweep(t *testing.T) {
	s, c, _ := newTestStore(time.Minute)

	s.Get("")
	c.Advance(30 * time.Second)
	keepID, _ := s.Get("")
	c.Advance(45 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if _, ok := s.Lookup(keepID); !ok {
		t.Error("Sweep() removed an active session")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s, c, _ := newTestStore(0)
	id, _ := s.Get("")
	c.Advance(1000 * time.Hour)
	if s.Sweep() != 0 {
		t.Error("Sweep() evicted with eviction disabled")
	}
	if _, ok := s.Lookup(id); !ok {
		t.Error("Lookup() failed with eviction disabled")
	}
}

func TestRunSweeperStops(t *testing.T) {
	s, _, _ := newTestStore(time.Minute)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.RunSweeper(time.Millisecond, stop)
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunSweeper did not return after stop")
	}
}

func TestSweepDoesNotWaitForUpload(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slowPrepare := func(file *intake.File) (*intake.UploadedImage, error) {
		close(started)
		<-release
		return intake.Prepare(file)
	}
	s := NewStore(func(id string) *assist.Assistant {
		return assist.New(assist.Dependencies{}, assist.WithSessionID(id), assist.WithPreparer(slowPrepare))
	}, time.Minute)

	_, a := s.Get("")
	uploaded := make(chan error, 1)
	go func() {
		_, err := a.Upload(&intake.File{Name: "large.png", Data: testimage.PNG(testimage.Blank(8, 8))})
		uploaded <- err
	}()
	<-started

	swept := make(chan int, 1)
	go func() { swept <- s.Sweep() }()
	select {
	case n := <-swept:
		if n != 0 {
			t.Errorf("Sweep() = %d, want 0", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Sweep() blocked behind an upload in another goroutine")
	}

	close(release)
	if err := <-uploaded; err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

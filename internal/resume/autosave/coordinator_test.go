package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai/internal/errcode"
	"resumeai/internal/resume"
)

// fakeStore 模拟文档存储：把补丁浅合并到服务端副本并返回。
type fakeStore struct {
	mu      sync.Mutex
	doc     resume.Resume
	calls   []resume.Patch
	err     error
	started chan struct{}
	release chan struct{}
}

func newFakeStore(doc resume.Resume) *fakeStore {
	return &fakeStore{doc: doc}
}

func (s *fakeStore) Save(_ context.Context, p resume.Patch) (resume.Resume, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	started, release := s.started, s.release
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return resume.Resume{}, s.err
	}
	s.doc = resume.Apply(s.doc, p)
	s.doc.UpdatedAt = s.doc.UpdatedAt.Add(time.Second)
	return s.doc, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeStore) lastCall() resume.Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func baseDoc(t *testing.T) resume.Resume {
	t.Helper()
	r, err := resume.New(1, resume.Patch{Title: resume.Ptr("Draft")}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func TestCoordinator_CoalescesRapidEdits(t *testing.T) {
	store := newFakeStore(baseDoc(t))
	c := New(store.doc, store, WithDelay(30*time.Millisecond))
	defer c.Close()

	c.Edit(resume.Patch{Summary: resume.Ptr("H")})
	c.Edit(resume.Patch{Summary: resume.Ptr("He"), FullName: resume.Ptr("Ada")})
	c.Edit(resume.Patch{Summary: resume.Ptr("Hello")})

	assert.Equal(t, StatusUnsaved, c.Status())
	assert.Equal(t, "Hello", c.Document().Summary, "local state reflects edits immediately")

	require.Eventually(t, func() bool { return c.Status() == StatusSaved }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.callCount())

	sent := store.lastCall()
	require.NotNil(t, sent.Summary)
	assert.Equal(t, "Hello", *sent.Summary)
	require.NotNil(t, sent.FullName)
	assert.Equal(t, "Ada", *sent.FullName)
	assert.Nil(t, sent.Title)
	assert.Equal(t, store.doc.UpdatedAt, c.Document().UpdatedAt, "reconciled with the canonical response")
}

func TestCoordinator_StaleResponseDoesNotOverwriteNewerEdits(t *testing.T) {
	store := newFakeStore(baseDoc(t))
	store.started = make(chan struct{})
	store.release = make(chan struct{})
	c := New(store.doc, store, WithDelay(time.Hour))
	defer c.Close()

	c.Edit(resume.Patch{Summary: resume.Ptr("first")})

	done := make(chan error, 1)
	go func() { done <- c.Flush(context.Background()) }()
	<-store.started
	assert.Equal(t, StatusSaving, c.Status())

	c.Edit(resume.Patch{Summary: resume.Ptr("second")})
	close(store.release)
	require.NoError(t, <-done)

	assert.Equal(t, "second", c.Document().Summary)
	assert.Equal(t, StatusUnsaved, c.Status())

	store.mu.Lock()
	store.started, store.release = nil, nil
	store.mu.Unlock()

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 2, store.callCount())
	assert.Equal(t, "second", *store.lastCall().Summary)
	assert.Equal(t, StatusSaved, c.Status())
	assert.Equal(t, "second", c.Document().Summary)
}

func TestCoordinator_FailureKeepsEditsAndClassifiesAuth(t *testing.T) {
	store := newFakeStore(baseDoc(t))
	store.err = fmt.Errorf("token expired: %w", errcode.ErrUnauthorized)

	var (
		mu     sync.Mutex
		events []Event
	)
	c := New(store.doc, store, WithDelay(time.Hour), WithListener(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))
	defer c.Close()

	c.Edit(resume.Patch{Title: resume.Ptr("Renamed")})
	err := c.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReauthenticate))
	assert.True(t, errors.Is(err, errcode.ErrUnauthorized))
	assert.Equal(t, StatusUnsaved, c.Status())
	assert.Equal(t, "Renamed", c.Document().Title)
	assert.ErrorIs(t, c.LastError(), ErrReauthenticate)

	mu.Lock()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	mu.Unlock()
	assert.Equal(t, StatusUnsaved, last.Status)
	assert.Error(t, last.Err)

	store.mu.Lock()
	store.err = errors.New("boom")
	store.mu.Unlock()
	err = c.Flush(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrReauthenticate))

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, "Renamed", *store.lastCall().Title, "failed patch is resent")
	assert.Equal(t, StatusSaved, c.Status())
	assert.NoError(t, c.LastError())
}

func TestCoordinator_CloseAbandonsPendingSave(t *testing.T) {
	store := newFakeStore(baseDoc(t))
	c := New(store.doc, store, WithDelay(20*time.Millisecond))

	c.Edit(resume.Patch{Summary: resume.Ptr("never sent")})
	c.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 0, store.callCount())
	c.Edit(resume.Patch{Summary: resume.Ptr("ignored")})
	assert.Equal(t, "never sent", c.Document().Summary)
}

func TestCoordinator_FlushWithoutEditsIsNoop(t *testing.T) {
	store := newFakeStore(baseDoc(t))
	c := New(store.doc, SaverFunc(store.Save))
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, store.callCount())
	assert.Equal(t, StatusSaved, c.Status())
}

func TestCoordinator_ListenerSeesTransitionsInOrder(t *testing.T) {
	store := newFakeStore(baseDoc(t))

	var (
		mu     sync.Mutex
		events []Status
	)
	c := New(store.doc, store, WithDelay(time.Millisecond), WithListener(func(ev Event) {
		if ev.Status == StatusUnsaved {
			// 拖慢第一条事件的投递，让计时器保存在此期间完成。
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		events = append(events, ev.Status)
		mu.Unlock()
	}))
	defer c.Close()

	c.Edit(resume.Patch{Title: resume.Ptr("Renamed")})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusUnsaved, StatusSaving, StatusSaved}, events)
	assert.Equal(t, StatusSaved, c.Status())
}

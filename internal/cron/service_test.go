package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruialonso/taxilog-backend/pkg/logger"
)

type stubLock struct {
	acquired   bool
	acquireErr error
	releases   int
}

func (s *stubLock) Acquire(ctx context.Context) (bool, error) {
	if s.acquireErr != nil {
		return false, s.acquireErr
	}
	return s.acquired, nil
}

func (s *stubLock) Release(ctx context.Context) error {
	s.releases++
	return nil
}

type stubJob struct {
	name string
	runs int
	err  error
}

func (s *stubJob) Name() string { return s.name }

func (s *stubJob) Run(ctx context.Context) error {
	s.runs++
	return s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: zerolog.ErrorLevel})
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &stubJob{name: "a"})
	registry.Register(nil)
	registry.Register(&stubJob{name: "b"})

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Fatal("jobs out of registration order")
	}
}

func TestRunCycleExecutesJobs(t *testing.T) {
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b", err: errors.New("boom")}
	lock := &stubLock{acquired: true}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(jobA, jobB),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	// A failing job does not stop the rest of the run.
	if jobA.runs != 1 || jobB.runs != 1 {
		t.Fatalf("job runs: a=%d b=%d", jobA.runs, jobB.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("lock released %d times", lock.releases)
	}
}

func TestRunCycleSkipsWithoutLock(t *testing.T) {
	job := &stubJob{name: "a"}
	lock := &stubLock{acquired: false}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("job ran without holding the lock")
	}
	if lock.releases != 0 {
		t.Fatal("lock released without being held")
	}
}

func TestRunCycleLockFailure(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Lock:   &stubLock{acquireErr: errors.New("redis down")},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected lock failure to surface")
	}
}

type mapLockStore struct {
	values map[string]string
}

func newMapLockStore() *mapLockStore {
	return &mapLockStore{values: map[string]string{}}
}

func (m *mapLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := m.values[key]; exists {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *mapLockStore) Get(ctx context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *mapLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestRedisLockExclusive(t *testing.T) {
	store := newMapLockStore()

	first, err := NewRedisLock(store, "txl:lock:cron", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, err := NewRedisLock(store, "txl:lock:cron", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := first.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("lock acquired twice")
	}

	if err := first.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = second.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	store := newMapLockStore()
	store.values["txl:lock:cron"] = "someone-else"

	lock, err := NewRedisLock(store, "txl:lock:cron", time.Hour)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	// Never acquired, so release must leave the foreign owner in place.
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["txl:lock:cron"] != "someone-else" {
		t.Fatal("released a lock owned by another instance")
	}
}

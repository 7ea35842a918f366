package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/provisioning"
	"campuskit.app/institution-service/internal/worker"
)

type mockOrphanStore struct {
	mu       sync.Mutex
	orphans  []model.OrphanedUser
	attempts map[int64]bool
	listErr  error
}

func (m *mockOrphanStore) Create(_ context.Context, orphan *model.OrphanedUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphans = append(m.orphans, *orphan)
	return nil
}

func (m *mockOrphanStore) ListUnresolved(_ context.Context, limit int) ([]model.OrphanedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.OrphanedUser
	for _, o := range m.orphans {
		if !m.attempts[o.ID] {
			out = append(out, o)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOrphanStore) RecordAttempt(_ context.Context, id int64, resolved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = make(map[int64]bool)
	}
	m.attempts[id] = resolved
	return nil
}

func (m *mockOrphanStore) resolvedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for id, resolved := range m.attempts {
		if resolved {
			out = append(out, id)
		}
	}
	return out
}

type mockDeleter struct {
	mu      sync.Mutex
	deleted []string
	failIDs map[string]bool
}

func (m *mockDeleter) CreateUsers(_ context.Context, _ int64, _ []model.UserSpec) ([]string, error) {
	return nil, errors.New("not used by the reconciler")
}

func (m *mockDeleter) DeleteUsers(_ context.Context, userIDs []string) []provisioning.DeleteResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]provisioning.DeleteResult, len(userIDs))
	for i, id := range userIDs {
		m.deleted = append(m.deleted, id)
		results[i] = provisioning.DeleteResult{UserID: id}
		if m.failIDs[id] {
			results[i].Err = errors.New("user service unavailable")
		}
	}
	return results
}

func (m *mockDeleter) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

var _ = Describe("Reconciler", func() {
	var (
		orphans *mockOrphanStore
		deleter *mockDeleter
		rec     *worker.Reconciler
	)

	BeforeEach(func() {
		orphans = &mockOrphanStore{}
		deleter = &mockDeleter{failIDs: map[string]bool{}}
		rec = worker.NewReconciler(orphans, deleter, worker.ReconcilerConfig{
			Interval:  10 * time.Millisecond,
			BatchSize: 10,
		})
	})

	It("deletes orphaned users and marks them resolved", func() {
		orphans.orphans = []model.OrphanedUser{
			{ID: 1, InstitutionID: 42, RemoteUserID: "u-1", Reason: "cleanup failed"},
			{ID: 2, InstitutionID: 42, RemoteUserID: "u-2", Reason: "cleanup failed"},
		}

		go rec.Run(context.Background())
		defer rec.Stop()

		Eventually(orphans.resolvedIDs, time.Second).Should(ConsistOf(int64(1), int64(2)))
		Expect(deleter.deletedIDs()).To(ContainElements("u-1", "u-2"))
	})

	It("keeps an orphan unresolved when deletion keeps failing", func() {
		orphans.orphans = []model.OrphanedUser{
			{ID: 1, InstitutionID: 42, RemoteUserID: "u-1", Reason: "cleanup failed"},
		}
		deleter.failIDs["u-1"] = true

		go rec.Run(context.Background())
		defer rec.Stop()

		Eventually(func() int {
			return len(deleter.deletedIDs())
		}, time.Second).Should(BeNumerically(">=", 2))
		Expect(orphans.resolvedIDs()).To(BeEmpty())
	})

	It("survives a listing failure and retries next tick", func() {
		orphans.listErr = errors.New("cursor error")
		orphans.orphans = []model.OrphanedUser{
			{ID: 1, InstitutionID: 42, RemoteUserID: "u-1", Reason: "cleanup failed"},
		}

		go rec.Run(context.Background())
		defer rec.Stop()

		time.Sleep(30 * time.Millisecond)
		orphans.mu.Lock()
		orphans.listErr = nil
		orphans.mu.Unlock()

		Eventually(orphans.resolvedIDs, time.Second).Should(ConsistOf(int64(1)))
	})

	It("stops cleanly", func() {
		done := make(chan struct{})
		go func() {
			rec.Run(context.Background())
			close(done)
		}()

		time.Sleep(20 * time.Millisecond)
		rec.Stop()
		Eventually(done, time.Second).Should(BeClosed())
	})
})

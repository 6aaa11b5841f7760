package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/internal/store"
	"github.com/afb-group/contractor-cli/pkg/anthropic"
)

// mockStore records writes for assertion. Only the methods the processor
// touches are meaningful; the rest satisfy the interface.
type mockStore struct {
	mu        sync.Mutex
	pending   []model.Contractor
	updated   []model.Contractor
	errored   map[int64]string
	marked    [][]int64
	updateErr error
}

func newMockStore() *mockStore {
	return &mockStore{errored: make(map[int64]string)}
}

func (m *mockStore) UpsertContractors(_ context.Context, cs []model.Contractor) (int64, error) {
	return int64(len(cs)), nil
}

func (m *mockStore) ListPending(_ context.Context, limit int) ([]model.Contractor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.pending) {
		limit = len(m.pending)
	}
	out := m.pending[:limit]
	m.pending = m.pending[limit:]
	return out, nil
}

func (m *mockStore) MarkProcessing(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, ids)
	return nil
}

func (m *mockStore) UpdateResult(_ context.Context, c *model.Contractor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, *c)
	return nil
}

func (m *mockStore) SetError(_ context.Context, id int64, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errored[id] = msg
	return nil
}

func (m *mockStore) GetContractor(context.Context, int64) (*model.Contractor, error) {
	return nil, eris.New("not implemented")
}

func (m *mockStore) ListContractors(context.Context, store.ListFilter) ([]model.Contractor, error) {
	return nil, nil
}

func (m *mockStore) ApplyReview(context.Context, int64, store.ReviewUpdate) error { return nil }

func (m *mockStore) ListExportable(context.Context, int) ([]model.Contractor, error) {
	return nil, nil
}

func (m *mockStore) MarkExported(context.Context, []int64, string) error { return nil }

func (m *mockStore) Stats(context.Context) (*store.Stats, error) { return &store.Stats{}, nil }

func (m *mockStore) Migrate(context.Context) error { return nil }

func (m *mockStore) Close() error { return nil }

func (m *mockStore) lastUpdate() *model.Contractor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.updated) == 0 {
		return nil
	}
	c := m.updated[len(m.updated)-1]
	return &c
}

// mockDiscoverer returns a fixed candidate list.
type mockDiscoverer struct {
	candidates []model.WebsiteCandidate
	err        error
}

func (m *mockDiscoverer) Discover(context.Context, model.Contractor) ([]model.WebsiteCandidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.WebsiteCandidate, len(m.candidates))
	copy(out, m.candidates)
	return out, m.err
}

// mockFetcher maps URL to page text. Missing URLs fail the fetch.
type mockFetcher struct {
	pages map[string]string
}

func (m *mockFetcher) FetchText(_ context.Context, url string) (string, error) {
	text, ok := m.pages[url]
	if !ok {
		return "", eris.Errorf("fetch: no page for %s", url)
	}
	return text, nil
}

// mockAnthropic returns a canned text response.
type mockAnthropic struct {
	response string
	err      error
	calls    int
}

func (m *mockAnthropic) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.response}},
	}, nil
}

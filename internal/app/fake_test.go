package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/frbviewer/internal/domain/model"
)

var errBackend = errors.New("backend down")

func fp(v float64) *float64 { return &v }

// fakeBackend serves an in-memory catalog the way the viewer server does.
type fakeBackend struct {
	mu       sync.Mutex
	events   []model.Event
	rows     []model.Candidate
	sources  []string
	active   string
	calls    []string
	failAt   int
	failIdx  bool
	switched map[string][]model.Event
}

func newFakeBackend(nRows int) *fakeBackend {
	b := &fakeBackend{
		events: []model.Event{
			{ID: "E1", Metrics: model.Metrics{Top1Score: fp(0.93), SumTop2Score: fp(0.97)}, Images: []model.ImageRef{
				{Repo: model.RepoPath, RelPath: "2019/E1/E1_PATH.png", Kind: model.KindPathMain},
				{Repo: model.RepoPath, RelPath: "2019/E1/E1_zoom.png", Kind: model.KindPathZoomIn},
			}},
			{ID: "E2", Metrics: model.Metrics{Top1Score: fp(0.5)}, Images: []model.ImageRef{
				{Repo: model.RepoPath, RelPath: "2020/E2/E2_PATH.png", Kind: model.KindPathMain},
			}},
		},
		sources: []string{"default", "archive"},
		active:  "default",
		failAt:  -1,
		switched: map[string][]model.Event{
			"archive": {{ID: "A1"}},
		},
	}
	for i := 0; i < nRows; i++ {
		ev := "E1"
		if i%2 == 1 {
			ev = "E2"
		}
		c := model.Candidate{EventID: ev, CandidateID: fmt.Sprint(i + 1)}
		c.SetField("pox", float64(i%10)/10)
		if i%3 != 1 {
			c.SetField("mag", 18+float64(i%5))
		}
		b.rows = append(b.rows, c)
	}
	return b
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) Index(context.Context) ([]model.Event, error) {
	b.record("index")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failIdx {
		return nil, errBackend
	}
	return b.events, nil
}

func (b *fakeBackend) PathTable(_ context.Context, offset, limit, topN int) (model.Page, error) {
	b.record(fmt.Sprintf("page %d/%d/%d", offset, limit, topN))
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAt >= 0 && offset == b.failAt && limit > 1 {
		return model.Page{}, errBackend
	}

	rows := b.rows
	if topN > 0 {
		seen := map[string]int{}
		rows = nil
		for _, r := range b.rows {
			if seen[r.EventID] < topN {
				seen[r.EventID]++
				rows = append(rows, r)
			}
		}
	}
	total := len(rows)
	end := min(offset+limit, total)
	start := min(offset, total)
	return model.Page{
		Rows:    rows[start:end],
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: end < total,
	}, nil
}

func (b *fakeBackend) DataSources(context.Context) (model.Sources, error) {
	b.record("sources")
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Sources{Sources: b.sources, Active: b.active}, nil
}

func (b *fakeBackend) SwitchSource(_ context.Context, name string) (model.SwitchResult, error) {
	b.record("switch " + name)
	b.mu.Lock()
	defer b.mu.Unlock()
	events, ok := b.switched[name]
	if !ok {
		return model.SwitchResult{}, errBackend
	}
	b.active = name
	b.events = events
	b.rows = nil
	return model.SwitchResult{Active: name, EventCount: len(events)}, nil
}

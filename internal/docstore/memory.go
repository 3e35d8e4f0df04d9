package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps documents in process memory. Data is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string]*memDoc
	seq   int64
}

type memDoc struct {
	data map[string]any
	seq  int64
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{colls: make(map[string]map[string]*memDoc)}
}

// Name identifies the backend in logs and readiness output.
func (m *Memory) Name() string { return "memory" }

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Get(ctx context.Context, collection, id string, dst any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.colls[collection][id]
	if !ok {
		return ErrNotFound
	}
	return decodeMap(doc.data, dst)
}

func (m *Memory) Create(ctx context.Context, collection string, doc any) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) CreateWithID(ctx context.Context, collection, id string, doc any) error {
	data, err := encodeMap(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collection(collection)
	if _, ok := coll[id]; ok {
		return ErrExists
	}
	m.seq++
	coll[id] = &memDoc{data: data, seq: m.seq}
	return nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := encodeMap(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collection(collection)
	if existing, ok := coll[id]; ok {
		existing.data = data
		return nil
	}
	m.seq++
	coll[id] = &memDoc{data: data, seq: m.seq}
	return nil
}

// collection returns the named collection, creating it. Callers hold mu.
func (m *Memory) collection(name string) map[string]*memDoc {
	coll, ok := m.colls[name]
	if !ok {
		coll = make(map[string]*memDoc)
		m.colls[name] = coll
	}
	return coll
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := encodeMap(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.colls[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		doc.data[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.colls[collection]
	if _, ok := coll[id]; !ok {
		return ErrNotFound
	}
	delete(coll, id)
	return nil
}

func (m *Memory) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	filters, err := encodeFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	type hit struct {
		id  string
		doc *memDoc
	}
	var hits []hit
	for id, doc := range m.colls[collection] {
		if matches(doc.data, filters) {
			hits = append(hits, hit{id: id, doc: &memDoc{data: copyMap(doc.data), seq: doc.seq}})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(hits[i].doc.data[q.OrderBy], hits[j].doc.data[q.OrderBy])
			if c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		if q.Desc {
			return hits[i].doc.seq > hits[j].doc.seq
		}
		return hits[i].doc.seq < hits[j].doc.seq
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		data := h.doc.data
		docs = append(docs, Document{ID: h.id, decode: func(dst any) error { return decodeMap(data, dst) }})
	}
	return docs, nil
}

func encodeMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeMap(data map[string]any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func encodeFilters(filters []Filter) (map[string]any, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(filters))
	for _, f := range filters {
		m[f.Field] = f.Value
	}
	return encodeMap(m)
}

func matches(data, filters map[string]any) bool {
	for k, want := range filters {
		got, ok := data[k]
		if !ok || compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// compareValues orders JSON-decoded scalars. Strings holding RFC 3339 timestamps
// compare as instants.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case string:
		if bv, ok := b.(string); ok {
			ta, errA := time.Parse(time.RFC3339Nano, av)
			tb, errB := time.Parse(time.RFC3339Nano, bv)
			if errA == nil && errB == nil {
				return ta.Compare(tb)
			}
			return strings.Compare(av, bv)
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	return strings.Compare(typeRank(a), typeRank(b))
}

func typeRank(v any) string {
	switch v.(type) {
	case bool:
		return "1"
	case float64:
		return "2"
	case string:
		return "3"
	default:
		return "4"
	}
}

package render

import "sync"

type lazyValue struct {
	once  sync.Once
	fn    func() string
	value string
}

func (v *lazyValue) get() string {
	v.once.Do(func() {
		if v.fn != nil {
			v.value = v.fn()
		}
	})
	return v.value
}

// TagMap holds placeholder tokens in insertion order. Each value is computed
// on first use and memoized, so tags that no template references are never
// derived.
type TagMap struct {
	order  []string
	values map[string]*lazyValue
}

func NewTagMap() *TagMap {
	return &TagMap{values: make(map[string]*lazyValue)}
}

// Set registers a lazily computed value for tag, replacing any earlier one.
func (m *TagMap) Set(tag string, fn func() string) {
	if _, ok := m.values[tag]; !ok {
		m.order = append(m.order, tag)
	}
	m.values[tag] = &lazyValue{fn: fn}
}

func (m *TagMap) SetValue(tag, value string) {
	m.Set(tag, func() string { return value })
}

func (m *TagMap) Value(tag string) (string, bool) {
	v, ok := m.values[tag]
	if !ok {
		return "", false
	}
	return v.get(), true
}

func (m *TagMap) Tags() []string {
	return append([]string(nil), m.order...)
}

func (m *TagMap) Len() int {
	return len(m.order)
}

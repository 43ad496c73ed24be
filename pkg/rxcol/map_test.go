package rxcol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMap 订阅映射事件流并收集事件
func collectMap[K comparable, V any](s *Stream[MapEvent[K, V]]) *[]MapEvent[K, V] {
	events := &[]MapEvent[K, V]{}
	s.Subscribe(func(e MapEvent[K, V]) {
		*events = append(*events, e)
	})
	return events
}

// TestMapPut 测试写入的新增与修改事件
func TestMapPut(t *testing.T) {
	m := NewMap[string, int]()
	additions := collectMap(m.Additions())
	modifications := collectMap(m.Modifications())

	old, existed := m.Put("a", 1)
	assert.False(t, existed)
	assert.Zero(t, old)

	old, existed = m.Put("a", 2)
	assert.True(t, existed)
	assert.Equal(t, 1, old)

	require.Len(t, *additions, 1)
	e := (*additions)[0]
	assert.Equal(t, Addition, e.Type)
	assert.Equal(t, map[string]int{"a": 1}, e.Entries)

	require.Len(t, *modifications, 1)
	e = (*modifications)[0]
	assert.Equal(t, Modification, e.Type)
	assert.Equal(t, map[string]int{"a": 2}, e.Entries)
	assert.Equal(t, map[string]int{"a": 2}, e.Source)

	key, ok := e.Key()
	assert.True(t, ok)
	assert.Equal(t, "a", key)
}

// TestMapPutAll 测试批量写入聚合为一个事件
func TestMapPutAll(t *testing.T) {
	m := NewMap[string, int]()
	m.Put("a", 1)

	additions := collectMap(m.Additions())
	modifications := collectMap(m.Modifications())

	// 含新键，发 ADDITION
	m.PutAll(map[string]int{"a": 10, "b": 2})
	require.Len(t, *additions, 1)
	assert.Equal(t, 2, (*additions)[0].Affected())

	// 全部为已有键，发 MODIFICATION
	m.PutAll(map[string]int{"a": 100})
	require.Len(t, *modifications, 1)

	// 空入参不发事件
	m.PutAll(nil)
	assert.Len(t, *additions, 1)
	assert.Len(t, *modifications, 1)

	assert.Equal(t, 2, m.Len())
}

// TestMapRemove 测试删除事件
func TestMapRemove(t *testing.T) {
	m := NewMap[string, int]()
	m.Put("a", 1)

	deletions := collectMap(m.Deletions())

	v, ok := m.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Remove("missing")
	assert.False(t, ok)

	require.Len(t, *deletions, 1, "不存在的键不应发事件")
	e := (*deletions)[0]
	assert.Equal(t, Deletion, e.Type)
	assert.Equal(t, map[string]int{"a": 1}, e.Entries)
	assert.Empty(t, e.Source)
}

// TestMapClear 测试清空事件携带全部被删键值对
func TestMapClear(t *testing.T) {
	m := NewMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)

	deletions := collectMap(m.Deletions())

	m.Clear()
	m.Clear()

	require.Len(t, *deletions, 1, "空映射再次清空不应发事件")
	e := (*deletions)[0]
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, e.Entries)
	assert.Empty(t, e.Source)
	assert.Equal(t, 0, m.Len())
}

// TestMapReads 测试读操作
func TestMapReads(t *testing.T) {
	m := NewMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Get("x")
	assert.False(t, ok)

	assert.True(t, m.ContainsKey("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())
	assert.ElementsMatch(t, []int{1, 2}, m.Values())

	snap := m.Snapshot()
	snap["a"] = 99
	v, _ = m.Get("a")
	assert.Equal(t, 1, v, "修改快照不应影响映射")

	var count int
	m.Range(func(k string, v int) bool {
		count++
		return true
	})
	assert.Equal(t, 2, count)
}

// TestMapObserver 测试只读观察者视图
func TestMapObserver(t *testing.T) {
	m := NewMap[string, int]()
	o := m.Observer()

	var events int
	o.Additions().Subscribe(func(e MapEvent[string, int]) {
		events++
	})

	m.Put("a", 1)

	assert.Equal(t, 1, events)
	assert.Equal(t, 1, o.Len())
}

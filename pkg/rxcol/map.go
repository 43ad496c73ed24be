package rxcol

import "sync"

// Map 响应式映射
// 包装一个普通 map，每次有效的结构变更都会在变更应用之后同步发出一个事件
type Map[K comparable, V any] struct {
	// emitMu 串行化「变更 + 事件分发」，保证事件顺序与变更顺序一致
	emitMu sync.Mutex
	// mu 保护 entries，读操作仅持有读锁
	mu      sync.RWMutex
	entries map[K]V

	additions     *Stream[MapEvent[K, V]]
	deletions     *Stream[MapEvent[K, V]]
	modifications *Stream[MapEvent[K, V]]
}

// NewMap 创建空的响应式映射
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		entries:       make(map[K]V),
		additions:     newStream[MapEvent[K, V]](),
		deletions:     newStream[MapEvent[K, V]](),
		modifications: newStream[MapEvent[K, V]](),
	}
}

// Additions 新增事件流
func (m *Map[K, V]) Additions() *Stream[MapEvent[K, V]] { return m.additions }

// Deletions 删除事件流
func (m *Map[K, V]) Deletions() *Stream[MapEvent[K, V]] { return m.deletions }

// Modifications 修改事件流
func (m *Map[K, V]) Modifications() *Stream[MapEvent[K, V]] { return m.modifications }

// Observer 返回只读观察者视图
func (m *Map[K, V]) Observer() *MapObserver[K, V] {
	return &MapObserver[K, V]{m: m}
}

// Put 写入键值对
// 键不存在发出 ADDITION 事件，键已存在发出 MODIFICATION 事件，返回旧值
func (m *Map[K, V]) Put(k K, v V) (V, bool) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	old, existed := m.entries[k]
	m.entries[k] = v
	snap := m.snapshotLocked()
	m.mu.Unlock()

	e := MapEvent[K, V]{Entries: map[K]V{k: v}, Source: snap}
	if existed {
		e.Type = Modification
		m.modifications.publish(e)
	} else {
		e.Type = Addition
		m.additions.publish(e)
	}
	return old, existed
}

// PutAll 批量写入，聚合为一个事件
// 只要有任何新键即为 ADDITION 事件，全部为已有键时为 MODIFICATION 事件
// 空入参不发事件
func (m *Map[K, V]) PutAll(vs map[K]V) {
	if len(vs) == 0 {
		return
	}

	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	added := false
	affected := make(map[K]V, len(vs))
	for k, v := range vs {
		if _, existed := m.entries[k]; !existed {
			added = true
		}
		m.entries[k] = v
		affected[k] = v
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	e := MapEvent[K, V]{Entries: affected, Source: snap}
	if added {
		e.Type = Addition
		m.additions.publish(e)
	} else {
		e.Type = Modification
		m.modifications.publish(e)
	}
}

// Remove 删除键，发出一个 DELETION 事件，返回旧值
// 键不存在时不做任何事
func (m *Map[K, V]) Remove(k K) (V, bool) {
	var zero V

	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	old, existed := m.entries[k]
	if !existed {
		m.mu.Unlock()
		return zero, false
	}
	delete(m.entries, k)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.deletions.publish(MapEvent[K, V]{Type: Deletion, Entries: map[K]V{k: old}, Source: snap})
	return old, true
}

// Clear 清空映射，发出一个携带全部被删键值对的 DELETION 事件
// 映射已空时不发事件
func (m *Map[K, V]) Clear() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if len(m.entries) == 0 {
		m.mu.Unlock()
		return
	}
	removed := m.entries
	m.entries = make(map[K]V)
	m.mu.Unlock()

	m.deletions.publish(MapEvent[K, V]{Type: Deletion, Entries: removed, Source: map[K]V{}})
}

// Get 返回键对应的值
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[k]
	return v, ok
}

// Len 返回键值对数量
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ContainsKey 判断键是否存在
func (m *Map[K, V]) ContainsKey(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Keys 返回所有键的快照
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Values 返回所有值的快照
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([]V, 0, len(m.entries))
	for _, v := range m.entries {
		values = append(values, v)
	}
	return values
}

// Snapshot 返回映射快照
func (m *Map[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Range 遍历快照，回调返回 false 时停止
func (m *Map[K, V]) Range(f func(k K, v V) bool) {
	for k, v := range m.Snapshot() {
		if !f(k, v) {
			return
		}
	}
}

func (m *Map[K, V]) snapshotLocked() map[K]V {
	snap := make(map[K]V, len(m.entries))
	for k, v := range m.entries {
		snap[k] = v
	}
	return snap
}

// MapObserver 映射的只读观察者视图
type MapObserver[K comparable, V any] struct {
	m *Map[K, V]
}

// Additions 新增事件流
func (o *MapObserver[K, V]) Additions() *Stream[MapEvent[K, V]] { return o.m.additions }

// Deletions 删除事件流
func (o *MapObserver[K, V]) Deletions() *Stream[MapEvent[K, V]] { return o.m.deletions }

// Modifications 修改事件流
func (o *MapObserver[K, V]) Modifications() *Stream[MapEvent[K, V]] { return o.m.modifications }

// Snapshot 返回映射快照
func (o *MapObserver[K, V]) Snapshot() map[K]V { return o.m.Snapshot() }

// Len 返回键值对数量
func (o *MapObserver[K, V]) Len() int { return o.m.Len() }

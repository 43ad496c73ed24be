package rxcol

import "sync"

// List 响应式列表
// 包装一个普通切片，每次有效的结构变更都会在变更应用之后同步发出一个事件。
// 读操作不发事件、不阻塞变更分发；变更操作按调用顺序全序发出事件。
type List[T comparable] struct {
	// emitMu 串行化「变更 + 事件分发」，保证事件顺序与变更顺序一致
	emitMu sync.Mutex
	// mu 保护 items，读操作仅持有读锁
	mu    sync.RWMutex
	items []T

	additions     *Stream[ListEvent[T]]
	deletions     *Stream[ListEvent[T]]
	modifications *Stream[ListEvent[T]]
}

// NewList 创建空的响应式列表
func NewList[T comparable]() *List[T] {
	return &List[T]{
		additions:     newStream[ListEvent[T]](),
		deletions:     newStream[ListEvent[T]](),
		modifications: newStream[ListEvent[T]](),
	}
}

// NewListOf 以给定元素创建响应式列表，初始元素不发事件
func NewListOf[T comparable](items ...T) *List[T] {
	l := NewList[T]()
	l.items = append(l.items, items...)
	return l
}

// Additions 新增事件流
func (l *List[T]) Additions() *Stream[ListEvent[T]] { return l.additions }

// Deletions 删除事件流
func (l *List[T]) Deletions() *Stream[ListEvent[T]] { return l.deletions }

// Modifications 修改事件流
func (l *List[T]) Modifications() *Stream[ListEvent[T]] { return l.modifications }

// Observer 返回只读观察者视图
func (l *List[T]) Observer() *ListObserver[T] {
	return &ListObserver[T]{list: l}
}

// Add 追加元素，发出一个 ADDITION 事件，位置为新元素下标
func (l *List[T]) Add(v T) {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	l.items = append(l.items, v)
	pos := len(l.items) - 1
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.additions.publish(ListEvent[T]{Type: Addition, Items: []T{v}, Position: pos, Source: snap})
}

// AddAll 批量追加元素，发出一个 ADDITION 事件，位置为首个新元素下标
// 空入参不发事件
func (l *List[T]) AddAll(vs ...T) {
	if len(vs) == 0 {
		return
	}

	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	pos := len(l.items)
	l.items = append(l.items, vs...)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	affected := make([]T, len(vs))
	copy(affected, vs)
	l.additions.publish(ListEvent[T]{Type: Addition, Items: affected, Position: pos, Source: snap})
}

// Insert 在指定下标插入元素，发出一个 ADDITION 事件
// 下标越界返回 ErrIndexOutOfRange，不发事件
func (l *List[T]) Insert(index int, vs ...T) error {
	if len(vs) == 0 {
		return nil
	}

	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	if index < 0 || index > len(l.items) {
		l.mu.Unlock()
		return ErrIndexOutOfRange
	}
	rest := make([]T, len(l.items[index:]))
	copy(rest, l.items[index:])
	l.items = append(append(l.items[:index], vs...), rest...)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	affected := make([]T, len(vs))
	copy(affected, vs)
	l.additions.publish(ListEvent[T]{Type: Addition, Items: affected, Position: index, Source: snap})
	return nil
}

// Remove 删除首个等于 v 的元素，发出一个 DELETION 事件，位置为删除前下标
// 元素不存在时不做任何事，返回 false
func (l *List[T]) Remove(v T) bool {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	pos := l.indexOfLocked(v)
	if pos < 0 {
		l.mu.Unlock()
		return false
	}
	l.items = append(l.items[:pos], l.items[pos+1:]...)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.deletions.publish(ListEvent[T]{Type: Deletion, Items: []T{v}, Position: pos, Source: snap})
	return true
}

// RemoveAt 删除指定下标的元素，发出一个 DELETION 事件
// 下标越界返回 ErrIndexOutOfRange，不发事件
func (l *List[T]) RemoveAt(index int) (T, error) {
	var zero T

	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	if index < 0 || index >= len(l.items) {
		l.mu.Unlock()
		return zero, ErrIndexOutOfRange
	}
	removed := l.items[index]
	l.items = append(l.items[:index], l.items[index+1:]...)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.deletions.publish(ListEvent[T]{Type: Deletion, Items: []T{removed}, Position: index, Source: snap})
	return removed, nil
}

// RemoveAll 删除所有出现在 vs 中的元素，发出一个聚合的 DELETION 事件
// 被删元素可能不连续，位置为 NoPosition；没有元素被删除时不发事件
func (l *List[T]) RemoveAll(vs ...T) bool {
	if len(vs) == 0 {
		return false
	}
	drop := make(map[T]struct{}, len(vs))
	for _, v := range vs {
		drop[v] = struct{}{}
	}
	return l.removeMatching(func(v T) bool {
		_, ok := drop[v]
		return ok
	})
}

// Retain 仅保留出现在 vs 中的元素，其余删除，发出一个聚合的 DELETION 事件
func (l *List[T]) Retain(vs ...T) bool {
	keep := make(map[T]struct{}, len(vs))
	for _, v := range vs {
		keep[v] = struct{}{}
	}
	return l.removeMatching(func(v T) bool {
		_, ok := keep[v]
		return !ok
	})
}

// removeMatching 删除所有满足条件的元素，聚合为一个 DELETION 事件
func (l *List[T]) removeMatching(match func(T) bool) bool {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	var removed []T
	kept := l.items[:0]
	for _, v := range l.items {
		if match(v) {
			removed = append(removed, v)
		} else {
			kept = append(kept, v)
		}
	}
	if len(removed) == 0 {
		l.mu.Unlock()
		return false
	}
	l.items = kept
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.deletions.publish(ListEvent[T]{Type: Deletion, Items: removed, Position: NoPosition, Source: snap})
	return true
}

// Set 替换指定下标的元素，发出一个 MODIFICATION 事件，返回旧元素
// 下标越界返回 ErrIndexOutOfRange，不发事件
func (l *List[T]) Set(index int, v T) (T, error) {
	var zero T

	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	if index < 0 || index >= len(l.items) {
		l.mu.Unlock()
		return zero, ErrIndexOutOfRange
	}
	old := l.items[index]
	l.items[index] = v
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.modifications.publish(ListEvent[T]{Type: Modification, Items: []T{v}, Position: index, Source: snap})
	return old, nil
}

// Clear 清空列表，发出一个携带全部被删元素的 DELETION 事件
// 列表已空时不发事件
func (l *List[T]) Clear() {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return
	}
	removed := l.items
	l.items = nil
	l.mu.Unlock()

	l.deletions.publish(ListEvent[T]{Type: Deletion, Items: removed, Position: NoPosition, Source: []T{}})
}

// Get 返回指定下标的元素
func (l *List[T]) Get(index int) (T, error) {
	var zero T
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.items) {
		return zero, ErrIndexOutOfRange
	}
	return l.items[index], nil
}

// Size 返回元素数量
func (l *List[T]) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// IsEmpty 判断列表是否为空
func (l *List[T]) IsEmpty() bool {
	return l.Size() == 0
}

// Contains 判断元素是否存在
func (l *List[T]) Contains(v T) bool {
	return l.IndexOf(v) >= 0
}

// IndexOf 返回元素首次出现的下标，不存在返回 -1
func (l *List[T]) IndexOf(v T) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOfLocked(v)
}

// Items 返回列表快照
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Range 遍历快照，回调返回 false 时停止
func (l *List[T]) Range(f func(index int, v T) bool) {
	for i, v := range l.Items() {
		if !f(i, v) {
			return
		}
	}
}

func (l *List[T]) indexOfLocked(v T) int {
	for i, item := range l.items {
		if item == v {
			return i
		}
	}
	return -1
}

func (l *List[T]) snapshotLocked() []T {
	snap := make([]T, len(l.items))
	copy(snap, l.items)
	return snap
}

// ListObserver 列表的只读观察者视图
// 仅暴露事件流与快照读取，供监控/诊断方使用
type ListObserver[T comparable] struct {
	list *List[T]
}

// Additions 新增事件流
func (o *ListObserver[T]) Additions() *Stream[ListEvent[T]] { return o.list.additions }

// Deletions 删除事件流
func (o *ListObserver[T]) Deletions() *Stream[ListEvent[T]] { return o.list.deletions }

// Modifications 修改事件流
func (o *ListObserver[T]) Modifications() *Stream[ListEvent[T]] { return o.list.modifications }

// Items 返回列表快照
func (o *ListObserver[T]) Items() []T { return o.list.Items() }

// Size 返回元素数量
func (o *ListObserver[T]) Size() int { return o.list.Size() }

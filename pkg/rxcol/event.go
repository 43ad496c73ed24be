package rxcol

// EventType 集合结构变更事件类型
type EventType int

const (
	// Addition 新增元素
	Addition EventType = iota
	// Deletion 删除元素
	Deletion
	// Modification 修改元素
	Modification
)

// String 返回事件类型名称
func (t EventType) String() string {
	switch t {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	case Modification:
		return "modification"
	default:
		return "unknown"
	}
}

// NoPosition 批量操作（removeAll、retain、clear）没有单一确定位置时使用
const NoPosition = -1

// ListEvent 列表变更事件
// 事件在变更应用之后同步发出，Source 为变更后的快照
type ListEvent[T any] struct {
	Type     EventType
	Items    []T // 受影响的元素
	Position int // 插入/删除/修改位置，批量操作为 NoPosition
	Source   []T // 变更后的列表快照
}

// First 返回第一个受影响的元素
func (e ListEvent[T]) First() T {
	return e.Items[0]
}

// Affected 返回受影响的元素数量
func (e ListEvent[T]) Affected() int {
	return len(e.Items)
}

// MapEvent 映射变更事件
type MapEvent[K comparable, V any] struct {
	Type    EventType
	Entries map[K]V // 受影响的键值对
	Source  map[K]V // 变更后的映射快照
}

// Affected 返回受影响的键值对数量
func (e MapEvent[K, V]) Affected() int {
	return len(e.Entries)
}

// Key 当事件只涉及单个键时返回该键
func (e MapEvent[K, V]) Key() (K, bool) {
	var zero K
	if len(e.Entries) != 1 {
		return zero, false
	}
	for k := range e.Entries {
		return k, true
	}
	return zero, false
}

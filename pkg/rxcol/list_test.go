package rxcol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect 订阅事件流并收集事件
func collect[T comparable](s *Stream[ListEvent[T]]) *[]ListEvent[T] {
	events := &[]ListEvent[T]{}
	s.Subscribe(func(e ListEvent[T]) {
		*events = append(*events, e)
	})
	return events
}

// TestListAdd 测试追加元素与 ADDITION 事件
func TestListAdd(t *testing.T) {
	l := NewList[string]()
	events := collect(l.Additions())

	l.Add("a")
	l.Add("b")

	assert.Equal(t, 2, l.Size())
	require.Len(t, *events, 2)

	first := (*events)[0]
	assert.Equal(t, Addition, first.Type)
	assert.Equal(t, "a", first.First())
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, []string{"a"}, first.Source)

	second := (*events)[1]
	assert.Equal(t, "b", second.First())
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, []string{"a", "b"}, second.Source, "事件快照应为变更后的状态")
}

// TestListAddAll 测试批量追加只发一个事件
func TestListAddAll(t *testing.T) {
	l := NewListOf("a")
	events := collect(l.Additions())

	l.AddAll("b", "c")
	l.AddAll()

	require.Len(t, *events, 1, "空入参不应发事件")
	e := (*events)[0]
	assert.Equal(t, []string{"b", "c"}, e.Items)
	assert.Equal(t, 1, e.Position, "位置应为首个新元素下标")
	assert.Equal(t, []string{"a", "b", "c"}, e.Source)
}

// TestListInsert 测试插入与下标越界
func TestListInsert(t *testing.T) {
	l := NewListOf("a", "c")
	events := collect(l.Additions())

	require.NoError(t, l.Insert(1, "b"))
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())

	err := l.Insert(5, "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	require.Len(t, *events, 1, "失败的插入不应发事件")
}

// TestListRemove 测试删除与 DELETION 事件位置
func TestListRemove(t *testing.T) {
	l := NewListOf("a", "b", "c")
	events := collect(l.Deletions())

	assert.True(t, l.Remove("b"))
	assert.False(t, l.Remove("x"), "不存在的元素应返回 false")

	require.Len(t, *events, 1)
	e := (*events)[0]
	assert.Equal(t, Deletion, e.Type)
	assert.Equal(t, "b", e.First())
	assert.Equal(t, 1, e.Position, "位置应为删除前的下标")
	assert.Equal(t, []string{"a", "c"}, e.Source)
}

// TestListRemoveAt 测试按下标删除
func TestListRemoveAt(t *testing.T) {
	l := NewListOf("a", "b")

	removed, err := l.RemoveAt(0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed)

	_, err = l.RemoveAt(9)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

// TestListRemoveAll 测试聚合删除事件
func TestListRemoveAll(t *testing.T) {
	l := NewListOf("a", "b", "c", "d")
	events := collect(l.Deletions())

	assert.True(t, l.RemoveAll("b", "d"))
	assert.False(t, l.RemoveAll("x"), "没有元素被删除时应返回 false")

	require.Len(t, *events, 1, "批量删除应聚合为一个事件")
	e := (*events)[0]
	assert.Equal(t, []string{"b", "d"}, e.Items)
	assert.Equal(t, NoPosition, e.Position)
	assert.Equal(t, []string{"a", "c"}, e.Source)
}

// TestListRetain 测试保留过滤
func TestListRetain(t *testing.T) {
	l := NewListOf("a", "b", "c")
	events := collect(l.Deletions())

	assert.True(t, l.Retain("b"))
	assert.Equal(t, []string{"b"}, l.Items())

	require.Len(t, *events, 1)
	assert.Equal(t, []string{"a", "c"}, (*events)[0].Items)
}

// TestListSet 测试替换与 MODIFICATION 事件
func TestListSet(t *testing.T) {
	l := NewListOf("a", "b")
	events := collect(l.Modifications())

	old, err := l.Set(1, "x")
	require.NoError(t, err)
	assert.Equal(t, "b", old)

	require.Len(t, *events, 1)
	e := (*events)[0]
	assert.Equal(t, Modification, e.Type)
	assert.Equal(t, "x", e.First())
	assert.Equal(t, 1, e.Position)
	assert.Equal(t, []string{"a", "x"}, e.Source)
}

// TestListClear 测试清空事件携带全部被删元素
func TestListClear(t *testing.T) {
	l := NewListOf("a", "b")
	events := collect(l.Deletions())

	l.Clear()
	l.Clear()

	require.Len(t, *events, 1, "空列表再次清空不应发事件")
	e := (*events)[0]
	assert.Equal(t, []string{"a", "b"}, e.Items)
	assert.Equal(t, NoPosition, e.Position)
	assert.Empty(t, e.Source)
	assert.True(t, l.IsEmpty())
}

// TestListReads 测试读操作
func TestListReads(t *testing.T) {
	l := NewListOf("a", "b")

	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("x"))
	assert.Equal(t, 1, l.IndexOf("b"))
	assert.Equal(t, -1, l.IndexOf("x"))

	v, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	var seen []string
	l.Range(func(i int, v string) bool {
		seen = append(seen, v)
		return true
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

// TestListSnapshotIsolation 测试快照与内部状态隔离
func TestListSnapshotIsolation(t *testing.T) {
	l := NewListOf("a", "b")

	snap := l.Items()
	snap[0] = "mutated"

	v, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", v, "修改快照不应影响列表")
}

// TestListUnsubscribe 测试退订后不再接收事件
func TestListUnsubscribe(t *testing.T) {
	l := NewList[int]()

	var count int
	sub := l.Additions().Subscribe(func(e ListEvent[int]) {
		count++
	})

	l.Add(1)
	sub.Unsubscribe()
	sub.Unsubscribe() // 重复退订应无副作用
	l.Add(2)

	assert.Equal(t, 1, count)
}

// TestListHandlerCanRead 测试事件处理器内可读取列表
func TestListHandlerCanRead(t *testing.T) {
	l := NewList[int]()

	var sizeInHandler int
	l.Additions().Subscribe(func(e ListEvent[int]) {
		sizeInHandler = l.Size()
	})

	l.Add(42)
	assert.Equal(t, 1, sizeInHandler)
}

// TestListConcurrentMutations 测试并发变更下事件总数与终态一致
func TestListConcurrentMutations(t *testing.T) {
	l := NewList[int]()

	var mu sync.Mutex
	var events int
	l.Additions().Subscribe(func(e ListEvent[int]) {
		mu.Lock()
		events++
		mu.Unlock()
	})

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			l.Add(v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, l.Size())
	assert.Equal(t, n, events, "每次变更应恰好发出一个事件")
}

// TestEventTypeString 测试事件类型名称
func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "addition", Addition.String())
	assert.Equal(t, "deletion", Deletion.String())
	assert.Equal(t, "modification", Modification.String())
	assert.Equal(t, "unknown", EventType(99).String())
}

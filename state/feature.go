package state

import "fmt"

// Feature 一个状态切片：名称、初始状态和 reducer
type Feature interface {
	Name() string
	InitialState() any
	// Reduce 返回新状态；动作不属于该切片时返回 false
	Reduce(state, action any) (any, bool)
}

// Reducer 类型化的 reducer，通过 On 创建
type Reducer[S any] struct {
	match  func(action any) bool
	reduce func(state S, action any) S
}

// On 创建处理动作类型 A 的 reducer
func On[S, A any](fn func(state S, action A) S) Reducer[S] {
	return Reducer[S]{
		match: func(action any) bool {
			_, ok := action.(A)
			return ok
		},
		reduce: func(state S, action any) S {
			return fn(state, action.(A))
		},
	}
}

type feature[S any] struct {
	name     string
	initial  S
	reducers []Reducer[S]
}

// NewFeature 创建类型为 S 的状态切片
func NewFeature[S any](name string, initial S, reducers ...Reducer[S]) Feature {
	return &feature[S]{name: name, initial: initial, reducers: reducers}
}

func (f *feature[S]) Name() string      { return f.name }
func (f *feature[S]) InitialState() any { return f.initial }

func (f *feature[S]) Reduce(state, action any) (any, bool) {
	s, ok := state.(S)
	if !ok {
		s = f.initial
	}

	handled := false
	for _, r := range f.reducers {
		if r.match(action) {
			s = r.reduce(s, action)
			handled = true
		}
	}
	return s, handled
}

func (f *feature[S]) String() string {
	return fmt.Sprintf("Feature(%s)", f.name)
}

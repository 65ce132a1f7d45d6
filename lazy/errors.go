package lazy

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	// ErrFetchFailure 代码单元无法获取或已损坏
	ErrFetchFailure = errors.New("lazy: module fetch failed")
	// ErrBootstrapFailure 模块注册服务或初始化状态存储时失败
	ErrBootstrapFailure = errors.New("lazy: module bootstrap failed")
	// ErrMissingDependency 延迟注入的服务尚未注册
	ErrMissingDependency = errors.New("lazy: missing dependency")

	errNotInitialized = errors.New("component not initialized")
)

func errTypeMismatch(v any, typ reflect.Type) error {
	return fmt.Errorf("resolved value is %T, expected %v", v, typ)
}

// Outcome 一次 LoadModule 调用的结果
type Outcome int

const (
	OutcomeNotApplicable Outcome = iota
	OutcomeAlreadyLoaded
	OutcomeLoaded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotApplicable:
		return "NotApplicable"
	case OutcomeAlreadyLoaded:
		return "AlreadyLoaded"
	case OutcomeLoaded:
		return "Loaded"
	case OutcomeFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Result 描述一次加载。失败不会以 panic 或返回错误的形式传播，只记录在 Err 中。
type Result struct {
	Route    string
	ModuleID string
	Outcome  Outcome
	Err      error
	Added    int
	Duration time.Duration
	// Shared 表示同一次加载被多个并发调用方共享
	Shared   bool
}

// OK 除 OutcomeFailed 外都视为成功
func (r Result) OK() bool {
	return r.Outcome != OutcomeFailed
}

// LoadError 加载失败的详细信息，Kind 为 ErrFetchFailure 或 ErrBootstrapFailure
type LoadError struct {
	Kind     error
	Route    string
	ModuleID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: module %s (route %q): %v", e.Kind, e.ModuleID, e.Route, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// MissingDependencyError 延迟注入时找不到的服务
type MissingDependencyError struct {
	Type reflect.Type
	Name string
	Err  error
}

func (e *MissingDependencyError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("lazy: missing dependency %v (name: %s): %v", e.Type, e.Name, e.Err)
	}
	return fmt.Sprintf("lazy: missing dependency %v: %v", e.Type, e.Err)
}

func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

func (e *MissingDependencyError) Unwrap() error {
	return e.Err
}

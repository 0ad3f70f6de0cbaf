package steps

import "context"

// StepTypeBase — метка базового шага.
const StepTypeBase = "base_step"

// BaseStep — шаг без собственной логики.
//
// Action возвращает nil, поэтому Execute базового шага завершается
// ErrInvalidResult: конкретный тип обязан переопределить action.
type BaseStep struct{}

// NewBaseStep — Factory для base_step. Конфигурация не читается.
func NewBaseStep(Config) (Kind, error) {
	return BaseStep{}, nil
}

// Label возвращает метку шага.
func (BaseStep) Label() string {
	return StepTypeBase
}

// Action не делает ничего.
func (BaseStep) Action(context.Context) (map[string]any, error) {
	return nil, nil
}

// FuncStep — шаг из функции. Удобен для встраивания произвольной логики
// в план без отдельного типа.
type FuncStep struct {
	Name string
	Fn   func(ctx context.Context) (map[string]any, error)
	Keys []string
}

// Label возвращает Name.
func (s FuncStep) Label() string {
	return s.Name
}

// Action вызывает Fn.
func (s FuncStep) Action(ctx context.Context) (map[string]any, error) {
	return s.Fn(ctx)
}

// Measures возвращает Keys.
func (s FuncStep) Measures() []string {
	return s.Keys
}

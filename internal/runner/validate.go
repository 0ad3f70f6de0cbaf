package runner

import (
	"github.com/shaiso/Perftool/internal/domain"
	"github.com/shaiso/Perftool/internal/engine"
	"github.com/shaiso/Perftool/internal/steps"
)

// Validate проверяет план целиком до выполнения: структуру плана,
// известность типов шагов и конфигурацию каждого шага. Фабрики всех
// шагов вызываются, но ни один action не запускается.
//
// Ошибка фабрики возвращается как *engine.ValidationError с позицией
// шага; errors.Is(err, params.ErrConfiguration) при этом сохраняется.
func Validate(plan *domain.Plan, registry *steps.Registry) error {
	if err := engine.Validate(plan, registry.Has); err != nil {
		return err
	}
	_, err := buildSteps(plan, registry, nil)
	return err
}

// buildSteps собирает шаги плана по порядку. opts (опционально)
// задаёт опции Step для каждой позиции.
func buildSteps(plan *domain.Plan, registry *steps.Registry,
	opts func(position int, def *domain.StepDef) []steps.Option) ([]*steps.Step, error) {

	built := make([]*steps.Step, len(plan.Steps))
	for i := range plan.Steps {
		def := &plan.Steps[i]

		var stepOpts []steps.Option
		if opts != nil {
			stepOpts = opts(i, def)
		}

		step, err := registry.Build(steps.NewConfig(def.Name, def.Config, plan.ImplicitConfig), stepOpts...)
		if err != nil {
			return nil, engine.NewValidationError(i, "config", def.Name+": "+err.Error(), err)
		}
		built[i] = step
	}
	return built, nil
}

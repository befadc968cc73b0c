package inference

import "fmt"

// Strategy names accepted by New.
const (
	StrategyBase      = "base"
	StrategyTTA       = "tta"
	StrategyMix       = "mix"
	StrategyEnsemble  = "ensemble"
	StrategyMultitask = "multitask"
)

// Names lists the supported strategy names in a stable order.
func Names() []string {
	return []string{StrategyBase, StrategyTTA, StrategyMix, StrategyEnsemble, StrategyMultitask}
}

// Options carries the tuning knobs shared by the strategies.
type Options struct {
	TTAAugmentations int
	PurityThreshold  float64
	MarginThreshold  float64
}

// New constructs the named strategy. Ensemble works off the whole
// registry and takes no model path; every other strategy requires one.
func New(name, modelPath string, reg Registry, opts Options) (Strategy, error) {
	if name == StrategyEnsemble {
		return NewEnsemble(reg)
	}

	if modelPath == "" {
		return nil, fmt.Errorf("strategy %q: %w", name, ErrModelPathRequired)
	}

	switch name {
	case StrategyBase:
		c, err := reg.Classifier(modelPath)
		if err != nil {
			return nil, err
		}
		return NewBase(c), nil
	case StrategyTTA:
		c, err := reg.Classifier(modelPath)
		if err != nil {
			return nil, err
		}
		return NewTTA(c, opts.TTAAugmentations), nil
	case StrategyMix:
		c, err := reg.Classifier(modelPath)
		if err != nil {
			return nil, err
		}
		return NewMix(
			NewBase(c),
			NewTTA(c, opts.TTAAugmentations),
			opts.PurityThreshold,
			opts.MarginThreshold,
		), nil
	case StrategyMultitask:
		c, err := reg.Multitask(modelPath)
		if err != nil {
			return nil, err
		}
		return NewMultitask(c), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: base, tta, mix, ensemble, multitask)", ErrUnknownStrategy, name)
	}
}

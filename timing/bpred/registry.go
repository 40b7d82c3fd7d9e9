package bpred

import (
	"fmt"
	"sort"
)

var directionFactories = map[string]func() DirectionPredictor{
	"bimodal":    func() DirectionPredictor { return NewBimodal(BimodalConfig{}) },
	"gshare":     func() DirectionPredictor { return NewGShare(GShareConfig{}) },
	"perceptron": func() DirectionPredictor { return NewPerceptron(PerceptronConfig{}) },
}

// NewDirectionPredictor creates the direction predictor registered under
// name with its default configuration.
func NewDirectionPredictor(name string) (DirectionPredictor, error) {
	factory, ok := directionFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown direction predictor %q (available: %v)",
			name, DirectionPredictorNames())
	}
	return factory(), nil
}

// DirectionPredictorNames lists the registered direction predictors.
func DirectionPredictorNames() []string {
	names := make([]string, 0, len(directionFactories))
	for name := range directionFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

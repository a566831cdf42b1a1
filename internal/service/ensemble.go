package service

import (
	"context"
	"fmt"
	"time"

	"recorss/internal/config"
	"recorss/internal/model"
	"recorss/internal/service/classifier"
)

// Ensemble sums weighted votes of its active classifiers.
type Ensemble struct {
	classifiers []classifier.Classifier
	timeout     time.Duration
}

// NewEnsemble bounds each classifier call by timeout.
func NewEnsemble(classifiers []classifier.Classifier, timeout time.Duration) *Ensemble {
	if timeout <= 0 {
		timeout = config.DefaultClassifierTimeout
	}
	return &Ensemble{classifiers: classifiers, timeout: timeout}
}

// Classifiers returns the members in evaluation order.
func (e *Ensemble) Classifiers() []classifier.Classifier {
	return e.classifiers
}

// Score returns total[i] = sum of run(entries)[i] * weight over active
// classifiers. Any classifier failure or mis-shaped result fails the whole
// batch; no partial totals are returned.
func (e *Ensemble) Score(ctx context.Context, entries []model.Entry) ([]float64, error) {
	totals := make([]float64, len(entries))
	if len(entries) == 0 {
		return totals, nil
	}

	for _, c := range e.classifiers {
		if !c.Active() {
			continue
		}
		votes, err := e.run(ctx, c, entries)
		if err != nil {
			return nil, &ClassifierError{Classifier: c.Name(), Err: err}
		}
		if len(votes) != len(entries) {
			return nil, &ClassifierError{
				Classifier: c.Name(),
				Err:        fmt.Errorf("returned %d votes for %d entries", len(votes), len(entries)),
			}
		}
		weight := float64(c.Weight())
		for i, v := range votes {
			totals[i] += v * weight
		}
	}
	return totals, nil
}

func (e *Ensemble) run(ctx context.Context, c classifier.Classifier, entries []model.Entry) (votes []float64, err error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return c.Run(ctx, entries)
}

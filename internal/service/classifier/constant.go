package classifier

import (
	"context"

	"recorss/internal/model"
)

// Constant votes the same label for every entry.
type Constant struct {
	base
	vote float64
}

func NewConstant(name string, weight int, label model.Label) *Constant {
	vote := 0.0
	if label == model.LabelPositive {
		vote = 1
	}
	return &Constant{base: base{name: name, weight: weight}, vote: vote}
}

func (c *Constant) Run(_ context.Context, entries []model.Entry) ([]float64, error) {
	out := make([]float64, len(entries))
	for i := range out {
		out[i] = c.vote
	}
	return out, nil
}

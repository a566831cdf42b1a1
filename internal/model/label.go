package model

import (
	"fmt"
	"strings"
)

// Label is a binary classification outcome. It is used both for the verdict the
// pipeline assigns at ingestion and for the label a reader sets later.
type Label int

const (
	LabelUnset    Label = -1
	LabelNegative Label = 0
	LabelPositive Label = 1
)

func (l Label) String() string {
	switch l {
	case LabelNegative:
		return "negative"
	case LabelPositive:
		return "positive"
	default:
		return "unset"
	}
}

// ParseLabel accepts "positive"/"negative" (any case) or "1"/"0".
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "1":
		return LabelPositive, nil
	case "negative", "0":
		return LabelNegative, nil
	}
	return LabelUnset, fmt.Errorf("unknown label %q", s)
}

package enums

import "fmt"

// CartMergeStrategy decides what happens to an existing user cart when a
// guest cart is transferred at login.
type CartMergeStrategy string

const (
	CartMergeReplace CartMergeStrategy = "replace"
	CartMergeMerge   CartMergeStrategy = "merge"
)

var validCartMergeStrategies = []CartMergeStrategy{
	CartMergeReplace,
	CartMergeMerge,
}

func (c CartMergeStrategy) String() string {
	return string(c)
}

func (c CartMergeStrategy) IsValid() bool {
	for _, candidate := range validCartMergeStrategies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartMergeStrategy converts raw input into a CartMergeStrategy.
func ParseCartMergeStrategy(value string) (CartMergeStrategy, error) {
	for _, candidate := range validCartMergeStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart merge strategy %q", value)
}

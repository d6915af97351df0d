package models

import "golang.org/x/text/cases"

// NameKey returns the case-folded form of a list name. Two names collide
// exactly when their keys are equal.
func NameKey(name string) string {
	return cases.Fold().String(name)
}

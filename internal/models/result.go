package models

// Result holds either a value or an error from one branch of a fan-out
type Result[T any] struct {
	Value T
	Err   error
}

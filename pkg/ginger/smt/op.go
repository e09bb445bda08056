package smt

import "github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"

// Op is a single leaf mutation, the unit ProcessBatch consumes. Value is
// ignored for Remove.
type Op struct {
	Action Action
	Idx    uint64
	Value  field.Element
}

// InsertOp builds an Insert operation for idx/value, the common case
// callers construct directly rather than filling out an Op literal.
func InsertOp(idx uint64, value field.Element) Op {
	return Op{Action: Insert, Idx: idx, Value: value}
}

// RemoveOp builds a Remove operation for idx.
func RemoveOp(idx uint64) Op {
	return Op{Action: Remove, Idx: idx}
}

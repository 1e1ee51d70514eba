// Package formulas binds values to the variables of free-form arithmetic
// formulas and evaluates them to arbitrary precision.
//
// Extract finds the variable names a formula uses, in the order they first
// appear. Reconcile carries a Binding of values over to a new set of names,
// keeping values for names that survive and leaving new names unset. Session
// combines the two into the state of a single editing session, so that every
// change to the formula text re-derives the variables it needs.
//
// The calculation side is a small calculator in the spirit of notes math:
// "gross - (gross * tax_rate) - pension" is parsed once and evaluated with
// the values in a Binding. Variables that are bound to a value shadow the
// built-in functions of the same name.
package formulas

// Package srs implements the box-based spaced repetition scheduler: a
// generalized Leitner system. The Engine moves a card between boxes in
// response to a review outcome and computes its next due date; the Planner
// builds the ordered daily review queue under the user's quotas. Both are
// pure: they take explicit time arguments, perform no I/O, and return new
// values rather than mutating their inputs.
package srs

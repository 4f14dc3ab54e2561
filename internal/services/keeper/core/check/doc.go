// Package check classifies percentile skill checks under the Call of Cthulhu
// 7th edition success tiers.
//
// Evaluate is total over target >= 0 and draw in [1,100]: every pair maps to
// exactly one of the six outcomes. Callers that produce draws from a dice
// source never see an error; only hand-entered values can fall outside the
// domain.
package check

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

// Weights is the 21-element FSRS-6 parameter vector. It lives alongside
// Memory (rather than in internal/fsrs) so Memory.Retrievability can be
// evaluated without importing the scheduler package, matching the
// read-only-projection contract in spec.md's data model section.
type Weights [21]float64

// At returns w[i], 1-indexed the way the FSRS literature numbers w1..w21,
// so callers write w.At(20) instead of w[19].
func (w Weights) At(i int) float64 {
	return w[i-1]
}

// DefaultWeights is the reference FSRS-6 weight vector used when no
// per-scope calibration has been fitted yet.
var DefaultWeights = Weights{
	0.212, 1.2931, 2.3065, 8.2956, 6.4133, 0.8334, 3.0194, 0.001,
	1.8722, 0.1666, 0.796, 1.4835, 0.0614, 0.2629, 1.6483, 0.6014,
	1.8729, 0.5425, 0.0912, 0.0658, 0.1542,
}

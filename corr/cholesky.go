// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package corr builds the log-space covariance matrix from a scenario's
// CMA and factorizes it so correlated draws can be produced with a single
// matrix multiply (spec §4.1, §4.2).
package corr

import (
	"math"

	"github.com/penny-vault/retire-kernel/kerrors"
	"github.com/penny-vault/retire-kernel/scenario"

	"gonum.org/v1/gonum/mat"
)

// LMatrix is the lower-triangular Cholesky factor of the log-space
// covariance matrix, L such that L * Lᵀ = Σ_log, stored dense for cheap
// repeated use in the body generator's hot loop.
type LMatrix [scenario.NumAssets][scenario.NumAssets]float64

// ToLogSigma converts an arithmetic annual vol to the log-scale vol the
// body generator needs. When logScale is true, sigma is returned unchanged
// (the caller already supplied a log-scale vol).
func ToLogSigma(mu, sigma float64, logScale bool) float64 {
	if logScale {
		return sigma
	}
	ratio := sigma * sigma / ((1 + mu) * (1 + mu))
	return math.Sqrt(math.Log(1 + ratio))
}

// LogSigmaVector converts a CMA's full sigma vector to log scale.
func LogSigmaVector(c *scenario.CMA) [scenario.NumAssets]float64 {
	var out [scenario.NumAssets]float64
	for a := range out {
		out[a] = ToLogSigma(c.Mu[a], c.Sigma[a], c.LogScale)
	}
	return out
}

// Build constructs Σ_log = diag(σ_log)·ρ·diag(σ_log) and factorizes it,
// returning the lower-triangular Cholesky factor L such that L·Lᵀ = Σ_log.
// A non-positive-semidefinite correlation matrix is reported as a
// NumericalError (spec §7).
func Build(c *scenario.CMA) (LMatrix, error) {
	sigmaLog := LogSigmaVector(c)

	// Zero-vol assets give Σ_log an all-zero row and column, which the
	// Cholesky factorization rejects; factorize the other assets' block
	// and leave the zero-vol rows of L at zero.
	var idx []int
	for a := range sigmaLog {
		if sigmaLog[a] != 0 {
			idx = append(idx, a)
		}
	}
	var L LMatrix
	n := len(idx)
	if n == 0 {
		return L, nil
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = sigmaLog[idx[i]] * c.Corr[idx[i]][idx[j]] * sigmaLog[idx[j]]
		}
	}
	sym := mat.NewSymDense(n, data)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return LMatrix{}, kerrors.NewNumerical("covariance matrix is not positive semi-definite", nil)
	}

	var ltri mat.TriDense
	chol.LTo(&ltri)

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			L[idx[i]][idx[j]] = ltri.At(i, j)
		}
	}
	return L, nil
}

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

// Package bodygen produces the correlated Student-t diffusion body of the
// return generator: zero-mean shocks in log space whose covariance matches
// the scenario's Σ_log and whose tails heavy for low degrees of freedom
// (spec §4.2).
package bodygen

import (
	"math"
	"math/rand"

	"github.com/penny-vault/retire-kernel/corr"
	"github.com/penny-vault/retire-kernel/scenario"
	"github.com/penny-vault/retire-kernel/tensor"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianLimitDf is the effective degrees of freedom used when fat tails
// are switched off -- large enough that the Student-t body is
// indistinguishable from Gaussian (spec §4.1).
const GaussianLimitDf = 1e6

// minDf is the degrees of freedom a df <= 2 is clamped to, since at
// df <= 2 the scaling factor sqrt((df-2)/df) is undefined.
const minDf = 2.5

// Generate fills tensor cells (y, s in [simLo,simHi), a) with correlated
// Student-t body draws. rng must be a substream dedicated to this chunk
// (see package rng) so concurrent chunks never share RNG state.
func Generate(rng *rand.Rand, tdf float64, L corr.LMatrix, simLo, simHi int, out *tensor.Tensor) {
	df := tdf
	if df <= 2 {
		log.Warn().Float64("t_df", df).Msg("degrees of freedom <= 2, clamping to minimum for variance scaling")
		df = minDf
	}
	scale := math.Sqrt((df - 2) / df)

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df, Src: rng}

	var draw [scenario.NumAssets]float64
	for y := 0; y < out.Y; y++ {
		for s := simLo; s < simHi; s++ {
			for a := 0; a < int(scenario.NumAssets); a++ {
				draw[a] = scale * t.Rand()
			}
			cell := out.Cell(y, s)
			for a := 0; a < int(scenario.NumAssets); a++ {
				var z float64
				for k := 0; k <= a; k++ {
					z += L[a][k] * draw[k]
				}
				cell[a] = z
			}
		}
	}
}

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

// Package jumpgen adds Kou double-exponential jumps on top of the Student-t
// body: a shared market co-jump field (stocks and crypto, bleeding into
// bonds via a beta) plus per-asset idiosyncratic jumps (spec §4.3).
package jumpgen

import (
	"math/rand"

	"github.com/penny-vault/retire-kernel/paramstore"
	"github.com/penny-vault/retire-kernel/scenario"
	"github.com/penny-vault/retire-kernel/tensor"

	"gonum.org/v1/gonum/stat/distuv"
)

// Streams bundles the RNG substreams jump generation consumes for one
// chunk: one for the shared market field, one per asset for idiosyncratic
// jumps. Each must come from a distinct rng.Derive call (package rng) so
// concurrent chunks and concerns never share state.
type Streams struct {
	Market        *rand.Rand
	Idiosyncratic [scenario.NumAssets]*rand.Rand
}

// Generate adds jump contributions into tensor cells (y, s in
// [simLo,simHi), a). currentAge is the scenario's starting age, so year
// index y maps to age = currentAge + y for matching against BlackSwan.Age.
func Generate(streams Streams, pack paramstore.Pack, currentAge int, blackSwan scenario.BlackSwan, simLo, simHi int, out *tensor.Tensor) {
	affected := make(map[scenario.Asset]bool, len(pack.Market.AffectedAssets))
	for _, a := range pack.Market.AffectedAssets {
		affected[a] = true
	}

	// TailBoost (>1) shifts the jump distribution toward more negative
	// outcomes by scaling every negative-jump-size mean up; the default
	// pack carries TailBoost 1.0, so this is a no-op until a toggle's
	// tail_boost or a scenario's cma.tail_boost sets it (spec §4.1).
	tailBoost := pack.TailBoost
	if tailBoost <= 0 {
		tailBoost = 1.0
	}

	for y := 0; y < out.Y; y++ {
		age := currentAge + y
		etaNeg := pack.Market.EtaNeg * tailBoost
		if blackSwan.Enabled && age == blackSwan.Age {
			etaNeg = paramstore.BlackSwanMarketEtaNeg
		}

		for s := simLo; s < simHi; s++ {
			market := jumpSum(streams.Market, pack.Market.Lam, pack.Market.PPos, pack.Market.EtaPos, etaNeg)
			for a := range affected {
				out.Add(y, s, a, market)
			}
			out.Add(y, s, scenario.Bonds, market*pack.Market.BondBeta)

			for a := 0; a < int(scenario.NumAssets); a++ {
				asset := scenario.Asset(a)
				kp := pack.Kou[a]
				if kp.Lam <= 0 {
					continue
				}
				out.Add(y, s, asset, jumpSum(streams.Idiosyncratic[a], kp.Lam, kp.PPos, kp.EtaPos, kp.EtaNeg*tailBoost))
			}
		}
	}
}

// jumpSum draws a Poisson-count of signed exponential jumps for one
// (path, year, asset) cell and returns their sum in log space. With
// lam == 0 the count is zero and the sum is 0; Generate skips the
// idiosyncratic call for such assets but always draws the market field.
func jumpSum(rng *rand.Rand, lam, pPos, etaPos, etaNeg float64) float64 {
	n := int(distuv.Poisson{Lambda: lam, Src: rng}.Rand())
	var total float64
	for i := 0; i < n; i++ {
		if rng.Float64() < pPos {
			if etaPos > 0 {
				total += distuv.Exponential{Rate: 1 / etaPos, Src: rng}.Rand()
			}
		} else {
			if etaNeg > 0 {
				total -= distuv.Exponential{Rate: 1 / etaNeg, Src: rng}.Rand()
			}
		}
	}
	return total
}

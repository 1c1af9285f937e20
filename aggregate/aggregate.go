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

// Package aggregate reduces a completed cashflow run down to the
// percentile bands and success probability a caller actually wants (spec
// §4.6).
package aggregate

import (
	"math"
	"sort"

	"github.com/penny-vault/retire-kernel/cashflow"
)

// Result is the summarized output of a simulation run.
type Result struct {
	// YearlyP20/P50/P80 are per-year balance percentiles, one entry per
	// row of the cashflow output (year 0 is the starting balance).
	YearlyP20 []float64
	YearlyP50 []float64
	YearlyP80 []float64

	EndBalanceP10 float64
	EndBalanceP25 float64
	EndBalanceP50 float64
	EndBalanceP75 float64
	EndBalanceP90 float64

	// SuccessProbability is the fraction of paths that never ran out of
	// money before the end of the projection.
	SuccessProbability float64
}

// quantile computes the pth (0<=p<=1) quantile of a pre-sorted slice using
// R's type-7 linear interpolation, the default for sample quantiles.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Aggregate computes percentile bands and the success probability from a
// completed cashflow run.
func Aggregate(out *cashflow.Output) Result {
	var res Result

	res.YearlyP20 = make([]float64, len(out.Balances))
	res.YearlyP50 = make([]float64, len(out.Balances))
	res.YearlyP80 = make([]float64, len(out.Balances))

	row := make([]float64, len(out.Balances[0]))
	for y, balances := range out.Balances {
		copy(row, balances)
		sort.Float64s(row)
		res.YearlyP20[y] = quantile(row, 0.20)
		res.YearlyP50[y] = quantile(row, 0.50)
		res.YearlyP80[y] = quantile(row, 0.80)
	}

	endRow := make([]float64, len(out.Balances[len(out.Balances)-1]))
	copy(endRow, out.Balances[len(out.Balances)-1])
	sort.Float64s(endRow)
	res.EndBalanceP10 = quantile(endRow, 0.10)
	res.EndBalanceP25 = quantile(endRow, 0.25)
	res.EndBalanceP50 = quantile(endRow, 0.50)
	res.EndBalanceP75 = quantile(endRow, 0.75)
	res.EndBalanceP90 = quantile(endRow, 0.90)

	var survived int
	for _, ry := range out.RuinYear {
		if ry == cashflow.NoRuin {
			survived++
		}
	}
	res.SuccessProbability = float64(survived) / float64(len(out.RuinYear))

	return res
}

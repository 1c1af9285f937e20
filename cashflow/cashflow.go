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

// Package cashflow walks each simulated path year by year, netting income
// against spending, grossing the shortfall up for taxes, applying the
// black swan shock and the year's portfolio return, and tracking ruin as a
// one-way absorbing state (spec §4.5).
package cashflow

import (
	"math"

	"github.com/penny-vault/retire-kernel/scenario"
	"github.com/penny-vault/retire-kernel/tensor"
)

// NoRuin marks a path that never exhausted its balance.
const NoRuin = -1

// Output holds the balance trajectory and ruin year for a block of
// simulated paths. Balances is (nYears+1) rows by nSims columns; row 0 is
// the starting balance, row y the balance at the end of projection year y.
type Output struct {
	Balances [][]float64
	RuinYear []int
}

// NewOutput allocates an Output sized for nYears projection years and
// nSims paths, with row 0 pre-seeded at b0 and RuinYear at NoRuin.
func NewOutput(nYears, nSims int, b0 float64) *Output {
	out := &Output{
		Balances: make([][]float64, nYears+1),
		RuinYear: make([]int, nSims),
	}
	for y := range out.Balances {
		out.Balances[y] = make([]float64, nSims)
	}
	for s := range out.Balances[0] {
		out.Balances[0][s] = b0
	}
	for s := range out.RuinYear {
		out.RuinYear[s] = NoRuin
	}
	return out
}

// Simulate walks paths [simLo, simHi) of the given return tensor forward
// year by year, writing into out. out must already be allocated (see
// NewOutput) and shared across chunks -- concurrent calls over disjoint
// [simLo,simHi) ranges touch disjoint columns and never race.
func Simulate(s *scenario.Scenario, weights scenario.Weights, returns *tensor.Tensor, simLo, simHi int, out *Output) {
	nYears := s.NYears()

	lumpsByAge := make(map[int]float64)
	for _, l := range s.Lumps {
		lumpsByAge[l.Age] += l.Amount
	}
	toysByAge := make(map[int]float64)
	for _, t := range s.Toys {
		toysByAge[t.Age] += t.Amount
	}

	for sim := simLo; sim < simHi; sim++ {
		for y := 0; y < nYears; y++ {
			age := s.CurrentAge + y
			balance := out.Balances[y][sim]

			if balance <= 0 {
				out.Balances[y+1][sim] = 0
				continue
			}

			income := annualIncome(s, age)
			spending := annualSpending(s, age) + toysByAge[age]
			tax := incomeTax(s, income)
			lump := lumpsByAge[age]

			need := spending + tax - income - lump
			var grossNeed float64
			if need > 0 {
				denom := 1 - s.Taxes.EffectiveRate*s.Taxes.TaxablePortfolioRatio
				if denom <= 0 {
					denom = 1
				}
				grossNeed = need / denom
			} else {
				grossNeed = need
			}

			balance -= grossNeed
			if balance <= 0 {
				markRuin(out, sim, y)
				out.Balances[y+1][sim] = 0
				continue
			}

			if s.BlackSwan.Enabled && age == s.BlackSwan.Age {
				balance *= 1 - s.BlackSwan.PortfolioDrop
			}

			balance *= 1 + portfolioReturn(weights, returns, y, sim)
			if balance <= 0 {
				markRuin(out, sim, y)
				balance = 0
			}
			out.Balances[y+1][sim] = balance
		}
	}
}

func markRuin(out *Output, sim, year int) {
	if out.RuinYear[sim] == NoRuin {
		out.RuinYear[sim] = year
	}
}

func portfolioReturn(w scenario.Weights, returns *tensor.Tensor, y, sim int) float64 {
	cell := returns.Cell(y, sim)
	var r float64
	for a, wa := range w {
		r += wa * cell[a]
	}
	return r
}

// annualIncome sums consulting income and the household's recurring income
// streams, each grown at its own COLA/growth rate from its start age.
func annualIncome(s *scenario.Scenario, age int) float64 {
	var total float64

	c := s.Consulting
	if c.StartAmount > 0 && age >= c.StartAge && age < c.StartAge+c.Years {
		total += c.StartAmount * math.Pow(1+c.Growth, float64(age-c.StartAge))
	}

	for _, inc := range s.Incomes {
		if age < inc.StartAge || age > inc.EndAge {
			continue
		}
		total += inc.Monthly * 12 * math.Pow(1+inc.COLA, float64(age-inc.StartAge))
	}

	return total
}

// annualSpending applies the reduced-spend cutover and inflation, both
// compounded from CurrentAge.
func annualSpending(s *scenario.Scenario, age int) float64 {
	sched := s.Spending
	base := sched.BaseAnnual
	if age >= sched.ReduceAtAge {
		base = sched.ReducedAnnual
	}
	return base * math.Pow(1+sched.Inflation, float64(age-s.CurrentAge))
}

// incomeTax applies the effective rate to the taxable share of income.
func incomeTax(s *scenario.Scenario, income float64) float64 {
	if income <= 0 {
		return 0
	}
	return income * s.Taxes.TaxableIncomeRatio * s.Taxes.EffectiveRate
}

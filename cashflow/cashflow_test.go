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

package cashflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/retire-kernel/cashflow"
	"github.com/penny-vault/retire-kernel/scenario"
	"github.com/penny-vault/retire-kernel/tensor"
)

func flatReturns(nYears, nSims int, annualReturn float64) *tensor.Tensor {
	out := tensor.New(nYears, nSims)
	for y := 0; y < nYears; y++ {
		for s := 0; s < nSims; s++ {
			for a := 0; a < int(scenario.NumAssets); a++ {
				out.Set(y, s, scenario.Asset(a), annualReturn)
			}
		}
	}
	return out
}

var _ = Describe("Cashflow simulation", func() {
	var s *scenario.Scenario
	var weights scenario.Weights

	BeforeEach(func() {
		s = &scenario.Scenario{
			CurrentAge: 60,
			EndAge:     70,
			Spending:   scenario.SpendingSchedule{BaseAnnual: 40_000, ReducedAnnual: 40_000, ReduceAtAge: 200, Inflation: 0},
			Taxes:      scenario.Taxes{EffectiveRate: 0.2, TaxablePortfolioRatio: 1.0, TaxableIncomeRatio: 1.0},
		}
		weights = scenario.Weights{scenario.Cash: 1}
	})

	Context("with a growing balance and no spending shortfall", func() {
		It("never produces a negative balance", func() {
			returns := flatReturns(s.NYears(), 100, 0.05)
			out := cashflow.NewOutput(s.NYears(), 100, 2_000_000)
			cashflow.Simulate(s, weights, returns, 0, 100, out)

			for _, row := range out.Balances {
				for _, b := range row {
					Expect(b).To(BeNumerically(">=", 0))
				}
			}
		})

		It("reports no ruin for any path", func() {
			returns := flatReturns(s.NYears(), 50, 0.05)
			out := cashflow.NewOutput(s.NYears(), 50, 2_000_000)
			cashflow.Simulate(s, weights, returns, 0, 50, out)

			for _, ry := range out.RuinYear {
				Expect(ry).To(Equal(cashflow.NoRuin))
			}
		})
	})

	Context("with spending that exceeds a small balance and a loss every year", func() {
		It("ruins the path and keeps balance at zero afterward (one-way transition)", func() {
			returns := flatReturns(s.NYears(), 10, -0.30)
			out := cashflow.NewOutput(s.NYears(), 10, 50_000)
			cashflow.Simulate(s, weights, returns, 0, 10, out)

			for sim, ry := range out.RuinYear {
				Expect(ry).NotTo(Equal(cashflow.NoRuin))
				for y := ry + 1; y <= s.NYears(); y++ {
					Expect(out.Balances[y][sim]).To(Equal(0.0))
				}
			}
		})
	})

	Context("when a black swan is scheduled", func() {
		It("applies the portfolio drop in the matching year before that year's return", func() {
			s.BlackSwan = scenario.BlackSwan{Enabled: true, Age: 65, PortfolioDrop: 0.30}
			returns := flatReturns(s.NYears(), 5, 0.0)
			out := cashflow.NewOutput(s.NYears(), 5, 1_000_000)
			cashflow.Simulate(s, weights, returns, 0, 5, out)

			yearOfShock := 65 - s.CurrentAge
			for sim := 0; sim < 5; sim++ {
				before := out.Balances[yearOfShock][sim]
				after := out.Balances[yearOfShock+1][sim]
				// 40,000 spending grossed up at 20% is a 50,000 withdrawal,
				// then the 30% drop, then a 0% return.
				Expect(after).To(BeNumerically("~", (before-50_000)*(1-0.30), 1e-6))
			}
		})
	})

	Context("with a lump sum covering the full withdrawal need", func() {
		It("nets the lump against spending before grossing up for tax", func() {
			s.Lumps = []scenario.Lump{{Age: s.CurrentAge, Amount: 40_000}}
			returns := flatReturns(s.NYears(), 3, 0.0)

			out := cashflow.NewOutput(s.NYears(), 3, 1_000_000)
			cashflow.Simulate(s, weights, returns, 0, 3, out)

			// spending (40,000) is fully covered by the lump, so no
			// withdrawal -- and no tax gross-up -- should occur this year.
			Expect(out.Balances[1][0]).To(Equal(1_000_000.0))
		})

		It("only grosses up the tax on the shortfall the lump doesn't cover", func() {
			s.Lumps = []scenario.Lump{{Age: s.CurrentAge, Amount: 10_000}}
			returns := flatReturns(s.NYears(), 3, 0.0)

			withLump := cashflow.NewOutput(s.NYears(), 3, 1_000_000)
			cashflow.Simulate(s, weights, returns, 0, 3, withLump)

			s.Lumps = nil
			withoutLump := cashflow.NewOutput(s.NYears(), 3, 1_000_000)
			cashflow.Simulate(s, weights, returns, 0, 3, withoutLump)

			// a $10,000 lump should reduce, but not eliminate, the
			// withdrawal -- the remaining shortfall is still grossed up.
			shortfallWithLump := 1_000_000 - withLump.Balances[1][0]
			shortfallWithoutLump := 1_000_000 - withoutLump.Balances[1][0]
			Expect(shortfallWithLump).To(BeNumerically(">", 0))
			Expect(shortfallWithLump).To(BeNumerically("<", shortfallWithoutLump))
		})
	})

	Context("with a consulting income stream", func() {
		It("adds income that reduces the net withdrawal need", func() {
			s.Consulting = scenario.Consulting{StartAge: 60, Years: 5, StartAmount: 100_000, Growth: 0}
			returns := flatReturns(s.NYears(), 3, 0.0)

			withConsulting := cashflow.NewOutput(s.NYears(), 3, 1_000_000)
			cashflow.Simulate(s, weights, returns, 0, 3, withConsulting)

			s.Consulting = scenario.Consulting{}
			withoutConsulting := cashflow.NewOutput(s.NYears(), 3, 1_000_000)
			cashflow.Simulate(s, weights, returns, 0, 3, withoutConsulting)

			Expect(withConsulting.Balances[1][0]).To(BeNumerically(">", withoutConsulting.Balances[1][0]))
		})
	})
})

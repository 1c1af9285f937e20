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

package scenario_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/retire-kernel/kerrors"
	"github.com/penny-vault/retire-kernel/scenario"
)

func validScenario() scenario.Scenario {
	corr := [scenario.NumAssets][scenario.NumAssets]float64{}
	for i := range corr {
		corr[i][i] = 1.0
	}
	return scenario.Scenario{
		ID:         "test",
		CurrentAge: 60,
		EndAge:     95,
		NSims:      1000,
		Accounts: []scenario.Account{
			{Kind: "taxable", Balance: 1_000_000, Weights: scenario.Weights{scenario.Stocks: 0.6, scenario.Bonds: 0.4}},
		},
		Spending: scenario.SpendingSchedule{BaseAnnual: 60_000, ReducedAnnual: 50_000, ReduceAtAge: 80, Inflation: 0.025},
		Taxes:    scenario.Taxes{EffectiveRate: 0.2, TaxablePortfolioRatio: 0.5, TaxableIncomeRatio: 0.8},
		CMA: scenario.CMA{
			Mu:    [scenario.NumAssets]float64{scenario.Stocks: 0.07, scenario.Bonds: 0.03},
			Sigma: [scenario.NumAssets]float64{scenario.Stocks: 0.18, scenario.Bonds: 0.06},
			Corr:  corr,
			TDf:   8,
		},
	}
}

var _ = Describe("Scenario validation", func() {
	It("accepts a well-formed scenario", func() {
		s := validScenario()
		Expect(s.Validate()).To(BeNil())
	})

	It("rejects end_age <= current_age", func() {
		s := validScenario()
		s.EndAge = s.CurrentAge
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})

	It("rejects a non-positive n_sims", func() {
		s := validScenario()
		s.NSims = 0
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})

	It("rejects account weights that don't sum to 1", func() {
		s := validScenario()
		s.Accounts[0].Weights[scenario.Stocks] = 0.9
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})

	It("rejects a negative account balance", func() {
		s := validScenario()
		s.Accounts[0].Balance = -1
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})

	It("rejects t_df below 3", func() {
		s := validScenario()
		s.CMA.TDf = 2
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})

	It("rejects an asymmetric correlation matrix", func() {
		s := validScenario()
		s.CMA.Corr[int(scenario.Stocks)][int(scenario.Bonds)] = 0.3
		s.CMA.Corr[int(scenario.Bonds)][int(scenario.Stocks)] = 0.5
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})

	It("rejects an out-of-range black swan drop", func() {
		s := validScenario()
		s.BlackSwan = scenario.BlackSwan{Enabled: true, Age: 70, PortfolioDrop: 1.5}
		Expect(kerrors.Is(s.Validate(), kerrors.Validation)).To(BeTrue())
	})
})

var _ = Describe("Scenario derived fields", func() {
	It("computes NYears from the age range", func() {
		s := validScenario()
		Expect(s.NYears()).To(Equal(35))
	})

	It("falls back to DefaultSeed when Seed is zero", func() {
		s := validScenario()
		Expect(s.EffectiveSeed()).To(Equal(scenario.DefaultSeed))
	})

	It("uses the scenario's own seed when set", func() {
		s := validScenario()
		s.Seed = 42
		Expect(s.EffectiveSeed()).To(Equal(uint64(42)))
	})

	It("sums account balances for InitialBalance", func() {
		s := validScenario()
		s.Accounts = append(s.Accounts, scenario.Account{Balance: 500_000, Weights: scenario.Weights{scenario.Bonds: 1}})
		Expect(s.InitialBalance()).To(Equal(1_500_000.0))
	})

	It("balance-weights account allocations for TargetWeights", func() {
		s := validScenario()
		s.Accounts = []scenario.Account{
			{Balance: 600_000, Weights: scenario.Weights{scenario.Stocks: 1}},
			{Balance: 400_000, Weights: scenario.Weights{scenario.Bonds: 1}},
		}
		w := s.TargetWeights()
		Expect(w[scenario.Stocks]).To(BeNumerically("~", 0.6))
		Expect(w[scenario.Bonds]).To(BeNumerically("~", 0.4))
	})
})

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

package engine_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/retire-kernel/engine"
	"github.com/penny-vault/retire-kernel/kerrors"
	"github.com/penny-vault/retire-kernel/paramstore"
	"github.com/penny-vault/retire-kernel/scenario"
)

func benchmarkScenario() *scenario.Scenario {
	corr := [scenario.NumAssets][scenario.NumAssets]float64{}
	for i := range corr {
		corr[i][i] = 1.0
	}
	corr[int(scenario.Stocks)][int(scenario.Bonds)] = 0.15
	corr[int(scenario.Bonds)][int(scenario.Stocks)] = 0.15

	return &scenario.Scenario{
		ID:         "benchmark-1",
		CurrentAge: 65,
		EndAge:     95,
		NSims:      500,
		Accounts: []scenario.Account{
			{Kind: "taxable", Balance: 1_500_000, Weights: scenario.Weights{scenario.Stocks: 0.5, scenario.Bonds: 0.45, scenario.Cash: 0.05}},
		},
		Spending: scenario.SpendingSchedule{BaseAnnual: 70_000, ReducedAnnual: 60_000, ReduceAtAge: 85, Inflation: 0.025},
		Incomes: []scenario.IncomeStream{
			{StartAge: 67, EndAge: 95, Monthly: 2_500, COLA: 0.02},
		},
		Taxes: scenario.Taxes{EffectiveRate: 0.18, TaxablePortfolioRatio: 0.6, TaxableIncomeRatio: 0.85},
		CMA: scenario.CMA{
			Mu:       [scenario.NumAssets]float64{scenario.Stocks: 0.07, scenario.Bonds: 0.03, scenario.Cash: 0.02},
			Sigma:    [scenario.NumAssets]float64{scenario.Stocks: 0.18, scenario.Bonds: 0.06, scenario.Cash: 0.01},
			LogScale: true,
			Corr:     corr,
			TDf:      8,
		},
		Seed: 99,
	}
}

var _ = Describe("Simulate", func() {
	It("returns a ValidationError for a malformed scenario", func() {
		s := benchmarkScenario()
		s.EndAge = s.CurrentAge
		_, err := engine.Simulate(context.Background(), s, paramstore.Default(), nil)
		Expect(kerrors.Is(err, kerrors.Validation)).To(BeTrue())
	})

	It("produces a success probability within [0,1]", func() {
		s := benchmarkScenario()
		result, err := engine.Simulate(context.Background(), s, paramstore.Default(), nil)
		Expect(err).To(BeNil())
		Expect(result.Aggregate.SuccessProbability).To(BeNumerically(">=", 0))
		Expect(result.Aggregate.SuccessProbability).To(BeNumerically("<=", 1))
	})

	It("produces monotonically ordered yearly percentile bands", func() {
		s := benchmarkScenario()
		result, err := engine.Simulate(context.Background(), s, paramstore.Default(), nil)
		Expect(err).To(BeNil())
		for y := range result.Aggregate.YearlyP50 {
			Expect(result.Aggregate.YearlyP20[y]).To(BeNumerically("<=", result.Aggregate.YearlyP50[y]))
			Expect(result.Aggregate.YearlyP50[y]).To(BeNumerically("<=", result.Aggregate.YearlyP80[y]))
		}
	})

	It("is deterministic for a fixed seed", func() {
		s1 := benchmarkScenario()
		s2 := benchmarkScenario()

		r1, err1 := engine.Simulate(context.Background(), s1, paramstore.Default(), nil)
		r2, err2 := engine.Simulate(context.Background(), s2, paramstore.Default(), nil)
		Expect(err1).To(BeNil())
		Expect(err2).To(BeNil())
		Expect(r1.Aggregate.SuccessProbability).To(Equal(r2.Aggregate.SuccessProbability))
		Expect(r1.Aggregate.EndBalanceP50).To(Equal(r2.Aggregate.EndBalanceP50))
		Expect(r1.RunID).To(Equal(r2.RunID))
	})

	It("produces different trajectories for different seeds", func() {
		s1 := benchmarkScenario()
		s2 := benchmarkScenario()
		s2.Seed = s1.Seed + 1

		r1, _ := engine.Simulate(context.Background(), s1, paramstore.Default(), nil)
		r2, _ := engine.Simulate(context.Background(), s2, paramstore.Default(), nil)
		Expect(r1.Aggregate.EndBalanceP50).NotTo(Equal(r2.Aggregate.EndBalanceP50))
	})

	It("reuses a cached drift correction across runs with the same CMA and pack", func() {
		cache, err := engine.NewDriftCache(8)
		Expect(err).To(BeNil())

		s := benchmarkScenario()
		r1, err := engine.Simulate(context.Background(), s, paramstore.Default(), cache)
		Expect(err).To(BeNil())

		s2 := benchmarkScenario()
		s2.Seed = s.Seed + 1
		r2, err := engine.Simulate(context.Background(), s2, paramstore.Default(), cache)
		Expect(err).To(BeNil())

		Expect(r1.Diagnostics.Delta).To(Equal(r2.Diagnostics.Delta))
	})

	It("respects an already-cancelled context", func() {
		s := benchmarkScenario()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.Simulate(ctx, s, paramstore.Default(), nil)
		Expect(kerrors.Is(err, kerrors.Cancelled)).To(BeTrue())
	})
})

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

// Package scenario holds the immutable input data model for a retirement
// simulation run: accounts, spending, income streams, one-time cashflows,
// taxes, capital market assumptions, and the derived aggregate state built
// from them.
package scenario

// Asset enumerates the fixed, ordered asset set every vector and matrix in
// the kernel indexes by. The order is load-bearing: CMA vols/means/
// correlation rows and account weight arrays all follow it.
type Asset int

const (
	Stocks Asset = iota
	Bonds
	Crypto
	CDs
	Cash
	NumAssets
)

func (a Asset) String() string {
	switch a {
	case Stocks:
		return "stocks"
	case Bonds:
		return "bonds"
	case Crypto:
		return "crypto"
	case CDs:
		return "cds"
	case Cash:
		return "cash"
	default:
		return "unknown"
	}
}

// Weights is a fixed-size allocation across the asset set.
type Weights [NumAssets]float64

// Account is one holding bucket with its own target allocation.
type Account struct {
	Kind    string
	Balance float64
	Weights Weights
}

// SpendingSchedule describes the household's baseline annual spend, a
// reduced spend that kicks in at ReduceAtAge, and the inflation rate both
// grow with, compounded from CurrentAge.
type SpendingSchedule struct {
	BaseAnnual    float64
	ReducedAnnual float64
	ReduceAtAge   int
	Inflation     float64
}

// IncomeStream is a recurring income source active over [StartAge, EndAge],
// quoted as a monthly amount that grows at COLA compounded from StartAge.
type IncomeStream struct {
	StartAge int
	EndAge   int
	Monthly  float64
	COLA     float64
}

// Lump is a one-time cash inflow applied at the start of the year of Age.
type Lump struct {
	Age         int
	Amount      float64
	Description string
}

// Toy is a one-time cash outflow applied as extra spending in the year of Age.
type Toy struct {
	Age         int
	Amount      float64
	Description string
}

// Consulting is an active pre-retirement income stream that grows at Growth
// compounded per year since StartAge, active for Years years.
type Consulting struct {
	StartAge    int
	Years       int
	StartAmount float64
	Growth      float64
}

// Taxes is the single effective-rate tax model (no tax-lot accounting, no
// account-level treatment -- see spec Non-goals).
type Taxes struct {
	EffectiveRate         float64
	TaxablePortfolioRatio float64
	TaxableIncomeRatio    float64
}

// BlackSwan is a one-time, scheduled percentage drop in portfolio value.
type BlackSwan struct {
	Enabled      bool
	Age          int
	PortfolioDrop float64
}

// CMA holds the capital market assumptions: per-asset means and vols, the
// asset correlation matrix, and the fat-tail toggles that parameterize the
// body/jump generators.
type CMA struct {
	Mu   [NumAssets]float64
	Sigma [NumAssets]float64
	// LogScale, when true, indicates Sigma is already an annual log-return
	// vol. When false, Sigma is an arithmetic vol and gets converted
	// (see corr.ToLogSigma).
	LogScale bool
	Corr     [NumAssets][NumAssets]float64

	FatTails  bool
	TDf       float64
	TailProb  float64
	TailBoost float64
}

// Scenario is the full, immutable input to a simulation run.
type Scenario struct {
	ID         string
	CurrentAge int
	EndAge     int
	NSims      int

	Accounts []Account

	Spending   SpendingSchedule
	Incomes    []IncomeStream
	Lumps      []Lump
	Toys       []Toy
	Consulting Consulting
	Taxes      Taxes

	CMA       CMA
	BlackSwan BlackSwan

	// Seed selects the RNG master seed. Zero means "use the well-known
	// default" (see DefaultSeed).
	Seed uint64
}

// DefaultSeed is used when Scenario.Seed is zero, per spec §6
// ("defaults to a well-known constant for reproducibility").
const DefaultSeed uint64 = 0x5EED_FACE_0000_0001

// NYears is the number of simulated projection years.
func (s *Scenario) NYears() int {
	return s.EndAge - s.CurrentAge
}

// EffectiveSeed returns Scenario.Seed, or DefaultSeed if unset.
func (s *Scenario) EffectiveSeed() uint64 {
	if s.Seed == 0 {
		return DefaultSeed
	}
	return s.Seed
}

// InitialBalance returns B0, the sum of all account balances.
func (s *Scenario) InitialBalance() float64 {
	var b0 float64
	for _, a := range s.Accounts {
		b0 += a.Balance
	}
	return b0
}

// TargetWeights returns the balance-weighted average of account weights,
// renormalized to sum to 1. If the scenario has zero total balance, weights
// default to an even split (the value is moot since nothing grows or
// shrinks a zero balance).
func (s *Scenario) TargetWeights() Weights {
	var w Weights
	b0 := s.InitialBalance()
	if b0 <= 0 {
		for a := range w {
			w[a] = 1.0 / float64(NumAssets)
		}
		return w
	}
	for _, acct := range s.Accounts {
		frac := acct.Balance / b0
		for a := range w {
			w[a] += frac * acct.Weights[a]
		}
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum > 0 {
		for a := range w {
			w[a] /= sum
		}
	}
	return w
}

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

// Package paramstore holds the Kou jump / market co-jump / Student-t
// parameter pack, its production defaults, its toggle transformations, and
// its kou_params_v1 JSON persistence.
package paramstore

import "github.com/penny-vault/retire-kernel/scenario"

// PackVersion is the expected major version of a persisted parameter pack.
const PackVersion = "kou_params_v1"

// KouParams are the log-space Kou double-exponential jump parameters for a
// single asset: an annual Poisson jump rate, the probability a jump is
// positive, and the means of the positive/negative exponential jump sizes.
type KouParams struct {
	Lam    float64 `json:"lam"`
	PPos   float64 `json:"p_pos"`
	EtaPos float64 `json:"eta_pos"`
	EtaNeg float64 `json:"eta_neg"`
}

// MarketCoJump is a Kou jump shared across a set of correlated assets, plus
// a beta that scales how much of the field bleeds into bonds.
type MarketCoJump struct {
	KouParams
	AffectedAssets []scenario.Asset `json:"-"`
	BondBeta       float64          `json:"bond_beta"`
}

// Pack is the full, versioned parameter pack: per-asset Kou params, the
// market co-jump, and the Student-t body settings.
type Pack struct {
	Version string                              `json:"version"`
	Kou     [scenario.NumAssets]KouParams       `json:"kou"`
	Market  MarketCoJump                        `json:"market"`
	TDf     float64                             `json:"t_df"`
	FatTails  bool    `json:"fat_tails"`
	TailProb  float64 `json:"tail_prob"`
	TailBoost float64 `json:"tail_boost"`
}

// BlackSwanMarketEtaNeg is the reduced market eta_neg used for the (path,
// year) cell where a black swan shock fires, to avoid double-counting the
// drop (spec §4.1, §6).
const BlackSwanMarketEtaNeg = 0.070

// Default returns a deep copy of the production calibration (spec §4.1).
func Default() Pack {
	return Pack{
		Version: PackVersion,
		Kou: [scenario.NumAssets]KouParams{
			scenario.Stocks: {Lam: 0.20, PPos: 0.40, EtaPos: 0.030, EtaNeg: 0.075},
			scenario.Bonds:  {Lam: 0.03, PPos: 0.50, EtaPos: 0.006, EtaNeg: 0.012},
			scenario.Crypto: {Lam: 0.90, PPos: 0.45, EtaPos: 0.140, EtaNeg: 0.170},
			scenario.CDs:    {Lam: 0, PPos: 0.5, EtaPos: 0, EtaNeg: 0},
			scenario.Cash:   {Lam: 0, PPos: 0.5, EtaPos: 0, EtaNeg: 0},
		},
		Market: MarketCoJump{
			KouParams:      KouParams{Lam: 0.25, PPos: 0.40, EtaPos: 0.055, EtaNeg: 0.075},
			AffectedAssets: []scenario.Asset{scenario.Stocks, scenario.Crypto},
			BondBeta:       0.10,
		},
		TDf:       8, // "Standard" toggle default
		FatTails:  true,
		TailProb:  0.025,
		TailBoost: 1.0,
	}
}

// Clone returns a deep, independent copy of the pack. Every toggle
// transformation in toggles.go starts from a Clone so the caller's pack is
// never mutated (spec §4.1, §8 "toggle transform is pure").
func (p Pack) Clone() Pack {
	out := p
	out.Market.AffectedAssets = append([]scenario.Asset(nil), p.Market.AffectedAssets...)
	return out
}

// IdiosyncraticLamCap is the maximum effective per-asset jump rate after
// toggles are applied, to prevent unrealistic jump cascades (spec §4.3).
const IdiosyncraticLamCap = 1.0

// FromScenario overrides a pack's fat-tail body/skew settings
// (fat_tails/t_df/tail_prob/tail_boost) with the scenario's own cma fields
// (spec §3), leaving the pack's per-asset Kou and market co-jump
// calibration untouched. The input pack is never mutated; callers apply
// this before layering any CLI toggle overrides on top, so an explicit
// --magnitude/--frequency/--skew/--params flag still wins over the
// scenario file's settings.
func FromScenario(pack Pack, cma *scenario.CMA) Pack {
	out := pack.Clone()
	out.FatTails = cma.FatTails
	if cma.TDf > 0 {
		out.TDf = cma.TDf
	}
	if cma.TailProb > 0 {
		out.TailProb = cma.TailProb
	}
	if cma.TailBoost > 0 {
		out.TailBoost = cma.TailBoost
	}
	return out
}

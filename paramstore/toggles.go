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

package paramstore

// Magnitude, Frequency, and Skew select the fat-tail toggle presets from
// spec §4.1. Each is applied to a fresh Clone of the pack -- Apply never
// mutates its input.
type Magnitude int

const (
	MagnitudeStandard Magnitude = iota
	MagnitudeExtreme
)

type Frequency int

const (
	FrequencyStandard Frequency = iota
	FrequencyHigh
)

type Skew int

const (
	SkewStandard Skew = iota
	SkewNegative
)

// Toggles bundles the toggle selections plus the two standalone knobs
// (t_df, tail_boost) that can be set directly instead of via a preset.
type Toggles struct {
	Magnitude Magnitude
	Frequency Frequency
	Skew      Skew

	// TDf, when non-zero, overrides the pack's t_df (custom value in
	// [3, 20] per spec §4.1; Standard=8, Extreme=5 are the presets).
	TDf float64

	// TailBoost, when non-zero, overrides the pack's skew knob (in
	// [0.7, 1.3]; >1 shifts the distribution to more negative jumps).
	TailBoost float64
}

// Apply returns a new Pack with the requested toggles applied. The input
// pack is never mutated (spec §8: "Toggle transform is pure").
func Apply(pack Pack, t Toggles) Pack {
	out := pack.Clone()

	if t.TDf > 0 {
		out.TDf = t.TDf
	}
	if t.TailBoost > 0 {
		out.TailBoost = clip(t.TailBoost, 0.7, 1.3)
	}

	if t.Magnitude == MagnitudeExtreme {
		for i := range out.Kou {
			out.Kou[i].EtaPos *= 1.30
			out.Kou[i].EtaNeg *= 1.30
		}
		out.Market.EtaPos *= 1.30
		out.Market.EtaNeg *= 1.30
		out.TDf = 5
	}
	if t.TDf > 0 {
		out.TDf = t.TDf
	}

	if t.Frequency == FrequencyHigh {
		for i := range out.Kou {
			out.Kou[i].Lam *= 1.50
		}
		out.Market.Lam *= 1.50
		out.Market.EtaNeg *= 1.10
		out.TailProb = 0.05
	}

	if t.Skew == SkewNegative {
		for i := range out.Kou {
			out.Kou[i].PPos = clip(out.Kou[i].PPos-0.05, 0.05, 0.95)
			out.Kou[i].EtaNeg *= 1.10
			out.Kou[i].EtaPos *= 0.95
		}
		out.Market.PPos = clip(out.Market.PPos-0.05, 0.05, 0.95)
		out.Market.EtaNeg *= 1.10
		out.Market.EtaPos *= 0.95
	}

	for i := range out.Kou {
		if out.Kou[i].Lam > IdiosyncraticLamCap {
			out.Kou[i].Lam = IdiosyncraticLamCap
		}
	}

	return out
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

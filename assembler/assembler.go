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

// Package assembler combines the Student-t body and Kou jumps into the
// final per-asset arithmetic return tensor: it adds the Itô-corrected
// drift, runs an independent pilot pass to measure and cancel the bias the
// jump process introduces, and converts log returns to arithmetic (spec
// §4.4).
package assembler

import (
	"math"

	"github.com/penny-vault/retire-kernel/bodygen"
	"github.com/penny-vault/retire-kernel/corr"
	"github.com/penny-vault/retire-kernel/jumpgen"
	"github.com/penny-vault/retire-kernel/kerrors"
	"github.com/penny-vault/retire-kernel/paramstore"
	"github.com/penny-vault/retire-kernel/rng"
	"github.com/penny-vault/retire-kernel/scenario"
	"github.com/penny-vault/retire-kernel/tensor"

	"gonum.org/v1/gonum/stat"
)

// PilotYears and PilotSims are the minimum pilot-pass dimensions the drift
// correction is measured over, independent of the scenario's own horizon
// and sim count (spec §4.4: "Y_pilot >= 20, S_pilot >= 40000").
const (
	PilotYears = 20
	PilotSims  = 40000
)

// maxDriftCorrection is the largest |delta| tolerated before the pilot
// pass is considered to have diverged from the target mean (spec §7).
const maxDriftCorrection = 0.5

// Diagnostics reports the pilot pass's empirical per-asset moments and the
// drift correction derived from them, surfaced to callers for debugging
// calibration drift.
type Diagnostics struct {
	PilotMean       [scenario.NumAssets]float64
	PilotStdDev     [scenario.NumAssets]float64
	PilotExKurtosis [scenario.NumAssets]float64
	Delta           [scenario.NumAssets]float64
}

// ItoDrift converts each asset's target arithmetic mean into the log-space
// drift that, once exponentiated, reproduces that mean under plain
// lognormal diffusion: mu_log = ln(1+mu) - 1/2 sigma_log^2.
func ItoDrift(cma *scenario.CMA, sigmaLog [scenario.NumAssets]float64) [scenario.NumAssets]float64 {
	var out [scenario.NumAssets]float64
	for a := range out {
		out[a] = math.Log(1+cma.Mu[a]) - 0.5*sigmaLog[a]*sigmaLog[a]
	}
	return out
}

// ComputeDrift runs the independent pilot pass and returns the per-asset
// drift correction delta such that ln((1+mu)/(1+muHat)) cancels the bias
// the jump process adds on top of the Itô-corrected lognormal body. A
// correction whose magnitude exceeds maxDriftCorrection for any asset is
// reported as a NumericalError: the calibration is too far from the
// target to trust silently (spec §7).
func ComputeDrift(tdf float64, L corr.LMatrix, pack paramstore.Pack, mu, muLog [scenario.NumAssets]float64, masterSeed uint64, currentAge int, blackSwan scenario.BlackSwan) ([scenario.NumAssets]float64, Diagnostics, error) {
	pilot := tensor.New(PilotYears, PilotSims)

	bodygen.Generate(rng.Derive(masterSeed, 0, rng.StreamPilotBody), tdf, L, 0, PilotSims, pilot)

	streams := jumpgen.Streams{Market: rng.Derive(masterSeed, 0, rng.StreamPilotMarketJump)}
	for a := 0; a < int(scenario.NumAssets); a++ {
		streams.Idiosyncratic[a] = rng.DeriveIdiosyncratic(masterSeed, 0, rng.StreamPilotIdiosyncraticJump, a)
	}
	jumpgen.Generate(streams, pack, currentAge, blackSwan, 0, PilotSims, pilot)

	var delta [scenario.NumAssets]float64
	var diag Diagnostics

	sample := make([]float64, PilotYears*PilotSims)
	for a := 0; a < int(scenario.NumAssets); a++ {
		asset := scenario.Asset(a)
		idx := 0
		for y := 0; y < PilotYears; y++ {
			for s := 0; s < PilotSims; s++ {
				logR := muLog[a] + pilot.At(y, s, asset)
				sample[idx] = math.Exp(logR) - 1
				idx++
			}
		}

		muHat := stat.Mean(sample, nil)
		diag.PilotMean[a] = muHat
		diag.PilotStdDev[a] = stat.StdDev(sample, nil)
		diag.PilotExKurtosis[a] = stat.ExKurtosis(sample, nil)

		d := math.Log((1 + mu[a]) / (1 + muHat))
		if math.Abs(d) > maxDriftCorrection {
			return delta, diag, kerrors.NewNumericalf(nil, "drift correction for %s exceeded tolerance: delta=%f (target mu=%f, pilot muHat=%f)", asset, d, mu[a], muHat)
		}
		delta[a] = d
		diag.Delta[a] = d
	}

	return delta, diag, nil
}

// Assemble fills tensor cells (y, s in [simLo,simHi), a) with the final
// arithmetic return: body + jumps + (Itô drift + pilot correction),
// exponentiated back out of log space. chunk selects this call's RNG
// substream so concurrent chunks draw independent randomness.
func Assemble(tdf float64, L corr.LMatrix, pack paramstore.Pack, muLog, delta [scenario.NumAssets]float64, masterSeed uint64, chunk, currentAge int, blackSwan scenario.BlackSwan, simLo, simHi int, out *tensor.Tensor) {
	bodygen.Generate(rng.Derive(masterSeed, chunk, rng.StreamBody), tdf, L, simLo, simHi, out)

	streams := jumpgen.Streams{Market: rng.Derive(masterSeed, chunk, rng.StreamMarketJump)}
	for a := 0; a < int(scenario.NumAssets); a++ {
		streams.Idiosyncratic[a] = rng.DeriveIdiosyncratic(masterSeed, chunk, rng.StreamIdiosyncraticJump, a)
	}
	jumpgen.Generate(streams, pack, currentAge, blackSwan, simLo, simHi, out)

	for y := 0; y < out.Y; y++ {
		for s := simLo; s < simHi; s++ {
			cell := out.Cell(y, s)
			for a := 0; a < int(scenario.NumAssets); a++ {
				logR := cell[a] + muLog[a] + delta[a]
				cell[a] = math.Exp(logR) - 1
			}
		}
	}
}

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

// Package engine orchestrates a full simulation run: it validates the
// scenario, factorizes the covariance matrix, resolves (or caches) the
// pilot-pass drift correction, fans the return generation and cashflow
// walk out across data-parallel chunks, and aggregates the result. This
// is the only package that surfaces errors of kind kerrors.Kind to
// callers (spec §7, §9).
package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/penny-vault/retire-kernel/aggregate"
	"github.com/penny-vault/retire-kernel/assembler"
	"github.com/penny-vault/retire-kernel/bodygen"
	"github.com/penny-vault/retire-kernel/cashflow"
	"github.com/penny-vault/retire-kernel/corr"
	"github.com/penny-vault/retire-kernel/kerrors"
	"github.com/penny-vault/retire-kernel/paramstore"
	"github.com/penny-vault/retire-kernel/scenario"
	"github.com/penny-vault/retire-kernel/tensor"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// runNamespace is the fixed UUID namespace RunID is derived under, so a
// RunID is a pure function of (scenario ID, seed) and stays reproducible
// across processes without weakening the determinism property (spec §8).
var runNamespace = uuid.MustParse("7f7e6b4e-6c1e-4a2a-8f7e-5a1a2c9d4b3e")

// ChunkSize is the number of simulation paths each parallel worker
// generates and walks forward, a tradeoff between goroutine overhead and
// load balance across cores (spec §9).
const ChunkSize = 2000

// Result is the full output of a simulation run: the percentile
// aggregation callers actually want, plus the pilot-pass diagnostics for
// calibration debugging.
type Result struct {
	ScenarioID  string
	RunID       uuid.UUID
	Aggregate   aggregate.Result
	Diagnostics assembler.Diagnostics
}

// runID derives a deterministic uuid v5 from the scenario identity and
// effective seed, so two runs of the same scenario/seed are traceable to
// the same logical run without introducing any non-determinism.
func runID(s *scenario.Scenario) uuid.UUID {
	name := fmt.Sprintf("%s/%d", s.ID, s.EffectiveSeed())
	return uuid.NewSHA1(runNamespace, []byte(name))
}

// Simulate runs the full kernel for a scenario under the given parameter
// pack. cache may be nil, in which case the pilot pass always runs fresh.
// The returned error, when non-nil, is always a *kerrors.Error.
func Simulate(ctx context.Context, s *scenario.Scenario, pack paramstore.Pack, cache *DriftCache) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, kerrors.NewCancelled()
	}

	sigmaLog := corr.LogSigmaVector(&s.CMA)
	L, err := corr.Build(&s.CMA)
	if err != nil {
		return nil, err
	}

	// pack.FatTails/TDf are expected to already reflect the scenario's own
	// cma.fat_tails/t_df (see paramstore.FromScenario, applied by the
	// caller before layering any toggle overrides on top).
	tdf := bodygen.GaussianLimitDf
	if pack.FatTails {
		tdf = pack.TDf
	}

	muLog := assembler.ItoDrift(&s.CMA, sigmaLog)

	delta, diag, err := resolveDrift(tdf, L, pack, s, muLog, cache)
	if err != nil {
		return nil, err
	}

	nYears := s.NYears()
	nSims := s.NSims
	returns := tensor.New(nYears, nSims)

	if err := fanOut(ctx, nSims, func(ctx context.Context, chunk, lo, hi int) error {
		assembler.Assemble(tdf, L, pack, muLog, delta, s.EffectiveSeed(), chunk, s.CurrentAge, s.BlackSwan, lo, hi, returns)
		return nil
	}); err != nil {
		return nil, err
	}

	weights := s.TargetWeights()
	cfOut := cashflow.NewOutput(nYears, nSims, s.InitialBalance())

	if err := fanOut(ctx, nSims, func(ctx context.Context, chunk, lo, hi int) error {
		cashflow.Simulate(s, weights, returns, lo, hi, cfOut)
		return nil
	}); err != nil {
		return nil, err
	}

	agg := aggregate.Aggregate(cfOut)

	return &Result{ScenarioID: s.ID, RunID: runID(s), Aggregate: agg, Diagnostics: diag}, nil
}

func resolveDrift(tdf float64, L corr.LMatrix, pack paramstore.Pack, s *scenario.Scenario, muLog [scenario.NumAssets]float64, cache *DriftCache) ([scenario.NumAssets]float64, assembler.Diagnostics, error) {
	if cache != nil {
		if delta, diag, ok := cache.Get(tdf, s, pack); ok {
			log.Debug().Str("scenario_id", s.ID).Msg("drift cache hit")
			return delta, diag, nil
		}
	}

	delta, diag, err := assembler.ComputeDrift(tdf, L, pack, s.CMA.Mu, muLog, s.EffectiveSeed(), s.CurrentAge, s.BlackSwan)
	if err != nil {
		var zero [scenario.NumAssets]float64
		return zero, assembler.Diagnostics{}, err
	}

	if cache != nil {
		cache.Put(tdf, s, pack, delta, diag)
	}
	return delta, diag, nil
}

// fanOut splits [0,nSims) into ChunkSize-wide ranges and runs work
// concurrently across them with a data-parallel errgroup. Each chunk
// checks ctx for cooperative cancellation before doing any work, so a
// cancelled context short-circuits chunks that haven't started yet rather
// than quietly abandoning partial results.
func fanOut(ctx context.Context, nSims int, work func(ctx context.Context, chunk, lo, hi int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for chunk, lo := 0, 0; lo < nSims; chunk, lo = chunk+1, lo+ChunkSize {
		chunk, lo := chunk, lo
		hi := lo + ChunkSize
		if hi > nSims {
			hi = nSims
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return kerrors.NewCancelled()
			default:
			}
			return work(gctx, chunk, lo, hi)
		})
	}

	return g.Wait()
}

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

package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/penny-vault/retire-kernel/engine"
	"github.com/penny-vault/retire-kernel/paramstore"
	"github.com/penny-vault/retire-kernel/scenario"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("params", "", "path to a kou_params_v1 parameter pack (defaults to the production calibration)")
	simulateCmd.Flags().String("magnitude", "", "fat-tail magnitude toggle: standard|extreme")
	simulateCmd.Flags().String("frequency", "", "fat-tail frequency toggle: standard|high")
	simulateCmd.Flags().String("skew", "", "fat-tail skew toggle: standard|negative")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [flags] scenario.json",
	Short: "Run a Monte Carlo retirement simulation from a scenario file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create cpu profile")
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Error().Err(err).Str("path", args[0]).Msg("could not read scenario file")
			return
		}

		var s scenario.Scenario
		if err := json.Unmarshal(raw, &s); err != nil {
			log.Error().Err(err).Msg("could not parse scenario file")
			return
		}

		// The scenario's own cma.fat_tails/t_df/tail_boost/tail_prob
		// are the production settings for this run; an explicit --params
		// pack replaces them, and CLI toggles are layered on top.
		pack := paramstore.FromScenario(paramstore.Default(), &s.CMA)
		if path, _ := cmd.Flags().GetString("params"); path != "" {
			loaded, err := paramstore.LoadPack(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("could not load parameter pack")
				return
			}
			pack = loaded
		}

		magnitude, _ := cmd.Flags().GetString("magnitude")
		frequency, _ := cmd.Flags().GetString("frequency")
		skew, _ := cmd.Flags().GetString("skew")
		pack = paramstore.Apply(pack, paramstore.TogglesFromConfig(map[string]any{
			"magnitude": magnitude,
			"frequency": frequency,
			"skew":      skew,
		}))

		cache, err := engine.NewDriftCache(64)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build drift cache")
		}

		result, err := engine.Simulate(context.Background(), &s, pack, cache)
		if err != nil {
			log.Error().Err(err).Msg("simulation failed")
			return
		}

		printResult(result)
	},
}

func printResult(r *engine.Result) {
	fmt.Printf("scenario: %s  run: %s\n", r.ScenarioID, r.RunID)
	fmt.Printf("success probability: %.2f%%\n", r.Aggregate.SuccessProbability*100)
	fmt.Printf("end balance  p10=%.0f  p25=%.0f  p50=%.0f  p75=%.0f  p90=%.0f\n",
		r.Aggregate.EndBalanceP10, r.Aggregate.EndBalanceP25, r.Aggregate.EndBalanceP50,
		r.Aggregate.EndBalanceP75, r.Aggregate.EndBalanceP90)

	fmt.Println("year  p20          p50          p80")
	for y := range r.Aggregate.YearlyP50 {
		fmt.Printf("%4d  %11.0f  %11.0f  %11.0f\n", y, r.Aggregate.YearlyP20[y], r.Aggregate.YearlyP50[y], r.Aggregate.YearlyP80[y])
	}
}

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

import "github.com/spf13/cast"

// TogglesFromConfig builds a Toggles from a loosely-typed settings map (as
// produced by viper.AllSettings() for the "fat_tails" config section). Each
// value is defaulted with cast so a config file that stores t_df as an int,
// a string, or a float all resolve the same way.
func TogglesFromConfig(settings map[string]any) Toggles {
	var t Toggles

	switch cast.ToString(settings["magnitude"]) {
	case "extreme":
		t.Magnitude = MagnitudeExtreme
	default:
		t.Magnitude = MagnitudeStandard
	}

	switch cast.ToString(settings["frequency"]) {
	case "high":
		t.Frequency = FrequencyHigh
	default:
		t.Frequency = FrequencyStandard
	}

	switch cast.ToString(settings["skew"]) {
	case "negative":
		t.Skew = SkewNegative
	default:
		t.Skew = SkewStandard
	}

	t.TDf = cast.ToFloat64(settings["t_df"])
	t.TailBoost = cast.ToFloat64(settings["tail_boost"])

	return t
}

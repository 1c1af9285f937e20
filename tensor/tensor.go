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

// Package tensor is the fixed, contiguous (Y,S,A) return tensor shared by
// the body generator, jump generator, assembler, and cashflow engine. It
// replaces the source's dynamic per-asset dictionaries with a single flat,
// year-major float64 slice (spec §9).
package tensor

import "github.com/penny-vault/retire-kernel/scenario"

// Tensor is a dense (Y, S, A) array stored row-major in year-major order:
// index(y,s,a) = y*S*A + s*A + a. It is allocated once per run and
// discarded when the run ends (spec §3 "Lifecycle").
type Tensor struct {
	Y, S int
	Data []float64
}

// New allocates a zeroed tensor of shape (Y, S, NumAssets).
func New(y, s int) *Tensor {
	return &Tensor{Y: y, S: s, Data: make([]float64, y*s*int(scenario.NumAssets))}
}

func (t *Tensor) index(y, s int, a scenario.Asset) int {
	return (y*t.S+s)*int(scenario.NumAssets) + int(a)
}

// At returns the value at (y, s, a).
func (t *Tensor) At(y, s int, a scenario.Asset) float64 {
	return t.Data[t.index(y, s, a)]
}

// Set stores v at (y, s, a).
func (t *Tensor) Set(y, s int, a scenario.Asset, v float64) {
	t.Data[t.index(y, s, a)] = v
}

// Add accumulates v into (y, s, a).
func (t *Tensor) Add(y, s int, a scenario.Asset, v float64) {
	t.Data[t.index(y, s, a)] += v
}

// Cell returns the NumAssets-wide slice for a single (y, s) pair, letting
// callers read/write all assets in one bounds check.
func (t *Tensor) Cell(y, s int) []float64 {
	start := (y*t.S + s) * int(scenario.NumAssets)
	return t.Data[start : start+int(scenario.NumAssets)]
}

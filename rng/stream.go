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

// Package rng derives independent, reproducible random substreams for the
// kernel's parallel workers. Each substream's seed is a hash of (master
// seed, chunk index, stream id), not a shared, mutated global source --
// parallel chunks never touch each other's state (spec §5, §9).
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// Stream identifies which draw sequence a substream feeds, so that two
// different concerns (e.g. the body generator and the market jump
// generator) consuming the "same" chunk never share a seed.
type Stream uint32

const (
	StreamBody Stream = iota
	StreamMarketJump
	StreamIdiosyncraticJump
	StreamPilotBody
	StreamPilotMarketJump
	StreamPilotIdiosyncraticJump
)

// Derive returns a *rand.Rand seeded deterministically from
// (masterSeed, chunk, stream). Two calls with identical arguments always
// produce generators with identical future output.
func Derive(masterSeed uint64, chunk int, stream Stream) *rand.Rand {
	var buf [20]byte
	binary.BigEndian.PutUint64(buf[0:8], masterSeed)
	binary.BigEndian.PutUint32(buf[8:12], uint32(chunk))
	binary.BigEndian.PutUint32(buf[12:16], uint32(stream))
	binary.BigEndian.PutUint32(buf[16:20], uint32(chunk>>32))

	sum := sha256.Sum256(buf[:])
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(seed))
}

// DeriveIdiosyncratic returns a substream further keyed by asset index, so
// idiosyncratic jump draws for different assets never share a stream.
func DeriveIdiosyncratic(masterSeed uint64, chunk int, stream Stream, assetIdx int) *rand.Rand {
	return Derive(masterSeed, chunk*1009+assetIdx, stream)
}

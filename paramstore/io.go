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

import (
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/retire-kernel/kerrors"
)

// LoadPack reads a kou_params_v1 JSON parameter pack from path. Unknown
// fields are tolerated (encoding/json and goccy/go-json both ignore them by
// default); a missing required field or a version mismatch is rejected
// (spec §6).
func LoadPack(path string) (Pack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, kerrors.NewValidationf("could not read parameter pack %q: %v", path, err)
	}
	return ParsePack(raw)
}

// ParsePack parses a kou_params_v1 JSON document from memory.
func ParsePack(raw []byte) (Pack, error) {
	var p Pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pack{}, kerrors.NewValidationf("malformed parameter pack: %v", err)
	}
	if err := p.requireFields(); err != nil {
		return Pack{}, err
	}
	return p, nil
}

// requireFields rejects a pack missing the fields spec §6 calls required:
// a matching version string and a degrees-of-freedom of at least 3 (spec
// §7's "df < 3" ValidationError, checked here against the pack that is
// actually used for generation, not the scenario's separate cma.t_df).
func (p Pack) requireFields() error {
	if p.Version == "" {
		return kerrors.NewValidation("parameter pack missing required field: version")
	}
	if !strings.HasPrefix(p.Version, "kou_params_v") {
		return kerrors.NewValidationf("unrecognized parameter pack version %q", p.Version)
	}
	if strings.TrimPrefix(p.Version, "kou_params_v") != strings.TrimPrefix(PackVersion, "kou_params_v") {
		return kerrors.NewValidationf("parameter pack version %q does not match expected %q", p.Version, PackVersion)
	}
	if p.TDf < 3 {
		return kerrors.NewValidationf("t_df must be >= 3, got %f", p.TDf)
	}
	return nil
}

// SavePack serializes the pack as kou_params_v1 JSON to path.
func SavePack(path string, p Pack) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return kerrors.NewValidationf("could not marshal parameter pack: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return kerrors.NewValidationf("could not write parameter pack %q: %v", path, err)
	}
	return nil
}

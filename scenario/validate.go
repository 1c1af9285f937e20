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

package scenario

import (
	"math"

	"github.com/penny-vault/retire-kernel/kerrors"
)

const weightTolerance = 1e-6

// Validate checks the scenario against the invariants in spec §3/§7 and
// returns a *kerrors.Error of kind Validation on the first violation found.
func (s *Scenario) Validate() error {
	if s.EndAge <= s.CurrentAge {
		return kerrors.NewValidationf("end_age (%d) must be greater than current_age (%d)", s.EndAge, s.CurrentAge)
	}
	if s.NSims <= 0 {
		return kerrors.NewValidationf("n_sims must be positive, got %d", s.NSims)
	}
	if len(s.Accounts) == 0 {
		return kerrors.NewValidation("at least one account is required")
	}
	for i, acct := range s.Accounts {
		if acct.Balance < 0 {
			return kerrors.NewValidationf("account[%d] balance cannot be negative (%f)", i, acct.Balance)
		}
		var sum float64
		for a, w := range acct.Weights {
			if w < 0 || w > 1 {
				return kerrors.NewValidationf("account[%d] weight for %s out of [0,1]: %f", i, Asset(a), w)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return kerrors.NewValidationf("account[%d] weights sum to %f, want 1", i, sum)
		}
	}
	if s.Spending.BaseAnnual < 0 || s.Spending.ReducedAnnual < 0 {
		return kerrors.NewValidation("spending amounts cannot be negative")
	}
	if s.Spending.Inflation < 0 {
		return kerrors.NewValidation("spending inflation cannot be negative")
	}
	for i, inc := range s.Incomes {
		if inc.EndAge < inc.StartAge {
			return kerrors.NewValidationf("income[%d] end_age before start_age", i)
		}
		if inc.Monthly < 0 {
			return kerrors.NewValidationf("income[%d] monthly amount cannot be negative", i)
		}
	}
	if t := s.Taxes; t.EffectiveRate < 0 || t.EffectiveRate > 1 ||
		t.TaxablePortfolioRatio < 0 || t.TaxablePortfolioRatio > 1 ||
		t.TaxableIncomeRatio < 0 || t.TaxableIncomeRatio > 1 {
		return kerrors.NewValidation("tax ratios must be within [0,1]")
	}
	if s.BlackSwan.Enabled && (s.BlackSwan.PortfolioDrop < 0 || s.BlackSwan.PortfolioDrop > 1) {
		return kerrors.NewValidation("black_swan.portfolio_drop must be within [0,1]")
	}

	return s.CMA.validate()
}

func (c *CMA) validate() error {
	if c.TDf < 3 {
		return kerrors.NewValidationf("t_df must be >= 3, got %f", c.TDf)
	}
	for a, sigma := range c.Sigma {
		if sigma < 0 {
			return kerrors.NewValidationf("sigma for %s cannot be negative", Asset(a))
		}
	}
	for i := 0; i < int(NumAssets); i++ {
		if math.Abs(c.Corr[i][i]-1.0) > 1e-9 {
			return kerrors.NewValidationf("correlation diagonal entry %d must be 1, got %f", i, c.Corr[i][i])
		}
		for j := 0; j < int(NumAssets); j++ {
			if math.Abs(c.Corr[i][j]-c.Corr[j][i]) > 1e-9 {
				return kerrors.NewValidationf("correlation matrix not symmetric at (%d,%d)", i, j)
			}
			if c.Corr[i][j] < -1 || c.Corr[i][j] > 1 {
				return kerrors.NewValidationf("correlation entry (%d,%d) out of [-1,1]", i, j)
			}
		}
	}
	return nil
}

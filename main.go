// Copyright 2021 JD Fergason
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

package main

import (
	"github.com/penny-vault/retire-kernel/cmd"
	"github.com/penny-vault/retire-kernel/common"

	"github.com/spf13/viper"
)

func configureViper() {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/retiresim/")
	viper.AddConfigPath("$HOME/.config/retiresim")
	viper.AddConfigPath(".")

	// a missing config file is not fatal -- every setting has a flag/env
	// fallback (see cmd/root.go); only a malformed file is an error.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(err)
		}
	}
}

func main() {
	configureViper()
	common.SetupLogging()
	cmd.Execute()
}

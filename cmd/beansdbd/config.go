/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yuanfeng0905/beansdb/internal/config"
)

func newConfigCommand(loader *config.Loader) *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	var format string
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the fully-resolved configuration (file + env + flags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loader.Load()
			if err != nil {
				return err
			}
			return printConfig(opts, format)
		},
	}
	dump.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	root.AddCommand(dump)

	return root
}

// printConfig renders opts in the requested format. It round-trips
// through mapstructure into a plain map first, the same decode path
// viper itself uses internally, so the dump reflects exactly what the
// loader would hand to a consumer.
func printConfig(opts *config.Options, format string) error {
	var generic map[string]interface{}
	if err := mapstructure.Decode(opts, &generic); err != nil {
		return err
	}

	switch format {
	case "yaml":
		b, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
	default:
		b, err := json.MarshalIndent(generic, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	}

	return nil
}

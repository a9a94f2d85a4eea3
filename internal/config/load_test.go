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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	l := NewLoader()

	opts, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if opts.ListenAddress != Default().ListenAddress {
		t.Errorf("ListenAddress = %q, want default %q", opts.ListenAddress, Default().ListenAddress)
	}
}

func TestSetConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beansdbd.yaml")
	content := "listenAddress: 127.0.0.1:22122\nthreads: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := NewLoader()
	l.SetConfigFile(path)

	opts, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if opts.ListenAddress != "127.0.0.1:22122" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:22122", opts.ListenAddress)
	}
	if opts.Threads != 8 {
		t.Errorf("Threads = %d, want 8", opts.Threads)
	}
}

func TestSetConfigFileEmptyPathIsNoop(t *testing.T) {
	l := NewLoader()
	l.SetConfigFile("")

	if _, err := l.Load(); err != nil {
		t.Fatalf("Load() error = %v, want nil when SetConfigFile was a no-op", err)
	}
}

func TestRegisterFlagsBindsIntoViper(t *testing.T) {
	l := NewLoader()
	cmd := &cobra.Command{Use: "test"}

	if err := l.RegisterFlags(cmd); err != nil {
		t.Fatalf("RegisterFlags() error = %v", err)
	}

	if err := cmd.PersistentFlags().Set("listen-address", "10.0.0.1:11211"); err != nil {
		t.Fatalf("Set(listen-address) error = %v", err)
	}
	if err := cmd.PersistentFlags().Set("verbosity", "2"); err != nil {
		t.Fatalf("Set(verbosity) error = %v", err)
	}

	opts, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if opts.ListenAddress != "10.0.0.1:11211" {
		t.Errorf("ListenAddress = %q, want 10.0.0.1:11211", opts.ListenAddress)
	}
	if opts.Verbosity != 2 {
		t.Errorf("Verbosity = %d, want 2", opts.Verbosity)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beansdbd.yaml")
	content := "listenAddress: \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := NewLoader()
	l.SetConfigFile(path)

	if _, err := l.Load(); err == nil {
		t.Fatalf("Load() error = nil, want a validation error for empty listenAddress")
	}
}

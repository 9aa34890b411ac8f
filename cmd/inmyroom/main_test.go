/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"reflect"
	"testing"
)

func TestReorderFlags(t *testing.T) {
	got := reorderFlags([]string{"furniture-1", "-1", "0", "-fast"})
	want := []string{"-fast", "furniture-1", "-1", "0"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reorderFlags = %v, want %v", got, want)
	}
}

func TestParseFloats(t *testing.T) {
	v, err := parseFloats("1.5", "-2")
	if err != nil || v[0] != 1.5 || v[1] != -2 {
		t.Fatalf("parseFloats = %v, %v", v, err)
	}
	for _, bad := range []string{"x", "NaN", "inf", "-Inf"} {
		if _, err := parseFloats(bad); !errors.Is(err, errUsage) {
			t.Fatalf("parseFloats(%q): expected usage error, got %v", bad, err)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run(t.Context(), "frobnicate", nil); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

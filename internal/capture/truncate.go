// Copyright 2026 The NovaGuard Authors
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

package capture

import (
	"fmt"
	"unicode/utf8"
)

// Truncate caps text at maxBytes, appending a marker that records the
// original size. The cut never splits a multi-byte UTF-8 sequence.
// Returns the (possibly shortened) text and the original byte size, or 0
// when no truncation happened.
func Truncate(text string, maxBytes int) (string, int) {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text, 0
	}

	original := len(text)
	cut := text[:maxBytes]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}

	marker := fmt.Sprintf("\n[TRUNCATED - original size: %.1f KB]", float64(original)/1024)
	return cut + marker, original
}

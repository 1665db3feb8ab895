// Copyright 2025 Poiesic Systems
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

package storage

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// recordVersion prefixes every encoded record.
const recordVersion = 1

// writer appends MUS-encoded values to a buffer.
type writer struct {
	bs []byte
}

func newWriter() *writer {
	w := &writer{bs: make([]byte, 0, 64)}
	w.uint64(recordVersion)
	return w
}

func (w *writer) grow(n int) []byte {
	l := len(w.bs)
	w.bs = append(w.bs, make([]byte, n)...)
	return w.bs[l:]
}

func (w *writer) uint64(v uint64) {
	varint.Uint64.Marshal(v, w.grow(varint.Uint64.Size(v)))
}

func (w *writer) int64(v int64) {
	varint.Int64.Marshal(v, w.grow(varint.Int64.Size(v)))
}

func (w *writer) string(v string) {
	ord.String.Marshal(v, w.grow(ord.String.Size(v)))
}

func (w *writer) bool(v bool) {
	ord.Bool.Marshal(v, w.grow(ord.Bool.Size(v)))
}

func (w *writer) time(t time.Time) {
	w.bool(!t.IsZero())
	if !t.IsZero() {
		w.int64(t.UnixMicro())
	}
}

func (w *writer) strings(vs []string) {
	w.uint64(uint64(len(vs)))
	for _, v := range vs {
		w.string(v)
	}
}

func (w *writer) floats(vs []float32) {
	w.uint64(uint64(len(vs)))
	for _, v := range vs {
		raw.Float32.Marshal(v, w.grow(raw.Float32.Size(v)))
	}
}

// meta writes keys in sorted order so equal maps encode identically.
func (w *writer) meta(m map[string]string) {
	keys := slices.Sorted(maps.Keys(m))
	w.uint64(uint64(len(keys)))
	for _, k := range keys {
		w.string(k)
		w.string(m[k])
	}
}

// reader consumes MUS-encoded values. The first error sticks and all
// later reads return zero values.
type reader struct {
	bs  []byte
	err error
}

func newReader(bs []byte) *reader {
	r := &reader{bs: bs}
	if v := r.uint64(); r.err == nil && v != recordVersion {
		r.err = fmt.Errorf("unsupported record version %d", v)
	}
	return r
}

func (r *reader) advance(n int, err error) bool {
	if err != nil {
		r.err = err
		return false
	}
	r.bs = r.bs[n:]
	return true
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return 0
	}
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return 0
	}
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return ""
	}
	return v
}

func (r *reader) bool() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return false
	}
	return v
}

func (r *reader) time() time.Time {
	if !r.bool() {
		return time.Time{}
	}
	return time.UnixMicro(r.int64()).UTC()
}

// length reads a collection length and rejects values that cannot fit in
// the remaining input.
func (r *reader) length() int {
	n := r.uint64()
	if r.err == nil && n > uint64(len(r.bs)) {
		r.err = ErrTruncatedData
		return 0
	}
	return int(n)
}

func (r *reader) strings() []string {
	n := r.length()
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for range n {
		out = append(out, r.string())
	}
	return out
}

func (r *reader) floats() []float32 {
	n := r.length()
	if n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for range n {
		if r.err != nil {
			return nil
		}
		v, size, err := raw.Float32.Unmarshal(r.bs)
		if !r.advance(size, err) {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (r *reader) meta() map[string]string {
	n := r.length()
	if n == 0 {
		return nil
	}
	out := make(map[string]string, n)
	for range n {
		k := r.string()
		out[k] = r.string()
	}
	return out
}

// done reports the sticky error wrapped as a serialization failure.
func (r *reader) done() error {
	if r.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package mirror

import "unsafe"

// newMirroredBytes has no virtual-aliasing mechanism wired up outside
// linux; Buffer falls back to the portable bounce-buffer implementation.
func newMirroredBytes(size uint64) (unsafe.Pointer, func() error, error) {
	return nil, nil, errUnsupported
}

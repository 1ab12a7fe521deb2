// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

// options configures buffer construction. Unexported: callers reach it
// only through the Option functions below, the same fluent-but-closed
// shape as the teacher's Builder, scaled down to rivulet's much smaller
// configuration surface.
type options struct {
	portable bool
}

// Option configures an SPSCBuffer or SPMCBuffer at construction time.
type Option func(*options)

// WithPortable forces the copy-based bounce-buffer backing store (spec
// §9's quality-of-implementation fallback) even on platforms where a
// real mirrored mapping is available. Useful for testing the fallback
// path itself, or on element types too large to map cheaply.
func WithPortable() Option {
	return func(o *options) { o.portable = true }
}

func resolveOptions(opts []Option) options {
	var o options
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

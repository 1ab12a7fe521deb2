// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mirror

import "reflect"

// PointerFree reports whether t's values can never contain a Go pointer,
// directly or through any field, element or key. Types for which this
// returns false must never be backed by memory the garbage collector
// cannot scan, such as the real mmap double-mapping in mmap_linux.go.
func PointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return PointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !PointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// Pointer, Slice, Map, Chan, Func, Interface, String, UnsafePointer:
		// all either are a pointer or carry one internally.
		return false
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package rivulet

// RaceEnabled is true when the race detector is active.
// None of this package's tests consult it at present.
const RaceEnabled = true

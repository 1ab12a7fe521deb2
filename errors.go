// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrOverflow indicates a Grant or TryGrant request exceeds the maximum
// possible grant for the buffer (count > capacity-1). It is a programmer
// error: retry with a smaller count, the buffer itself can never satisfy
// this request no matter how long the caller waits.
var ErrOverflow = errors.New("rivulet: grant exceeds maximum buffer capacity")

// ErrClosed indicates the notification channel to a counterparty has
// been torn down and no further signal will ever arrive on it. Grant
// does not return ErrClosed for ordinary end-of-stream: a short (or
// empty) view is how that is signalled in-band, per spec.md §4.1. A
// caller that waits on a Grant whose counterparty is gone observes a
// short grant, never this error.
var ErrClosed = errors.New("rivulet: notification channel closed")

// IsOverflow reports whether err is (or wraps) ErrOverflow.
func IsOverflow(err error) bool {
	return errors.Is(err, ErrOverflow)
}

// IsClosed reports whether err is (or wraps) ErrClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsSemantic reports whether err is a control-flow signal rather than a
// failure, delegating to [iox.IsSemantic] for ErrOverflow/ErrClosed's
// cousins from code.hybscloud.com/lfq so callers juggling both packages
// can classify errors uniformly.
func IsSemantic(err error) bool {
	return IsOverflow(err) || IsClosed(err) || iox.IsSemantic(err)
}

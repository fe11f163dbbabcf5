// SPDX-License-Identifier: Apache-2.0

package domain

import "errors"

var ErrEmptyEventType = errors.New("empty event type")
var ErrMissingPostID = errors.New("missing post id")

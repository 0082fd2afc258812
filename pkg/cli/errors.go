// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import "errors"

var (
	// Configuration errors

	// ErrUnsupportedBackend is returned when an unsupported backend is specified.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrUnsupportedOutputFormat is returned when an unsupported output format is specified.
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")

	// ErrInvalidWorkers is returned when the worker bound is out of range.
	ErrInvalidWorkers = errors.New("workers must be between 1 and 16")

	// ErrInvalidRestoreDays is returned when the restore window is not positive.
	ErrInvalidRestoreDays = errors.New("restore-days must be positive")

	// Selection errors

	// ErrWildcardMaskRefused is returned when an empty mask pattern would
	// select every object in the bucket and --allow-wildcard was not given.
	// Matching everything is documented behavior, but it has to be asked
	// for explicitly.
	ErrWildcardMaskRefused = errors.New("empty mask pattern selects every object; pass --allow-wildcard to confirm")

	// ErrMaskOrKeyRequired is returned when an action names neither a mask
	// nor a single object key.
	ErrMaskOrKeyRequired = errors.New("either a mask pattern or --key is required")
)

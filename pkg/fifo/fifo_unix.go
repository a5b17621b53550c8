// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package fifo

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/stratastor/afd/pkg/errors"
)

// makeFifo creates a named pipe at path, mirroring mkfifo(path, mode)
// in the original fifo setup code.
func makeFifo(path string) error {
	if err := unix.Mkfifo(path, 0600); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.FifoOpenFailed).WithMetadata("path", path)
	}
	return nil
}

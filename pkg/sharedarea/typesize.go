// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package sharedarea

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
)

// TypesizeProfile mirrors the original TYPESIZE_DATA file (spec.md §4:
// "A small file TYPESIZE_DATA at the fifo dir records sizes of int,
// off_t, time_t, short, long long, pid_t, plus all MAX_* constants").
// Go has no analogous allocation-failure mode and no platform-variable
// int/off_t width, so the profile instead pins GOARCH plus the
// structural limits every shared-area consumer compiled against, which
// is the actual compatibility hazard in a Go rebuild of this daemon:
// two binaries built with different MAX_* constants disagreeing about
// entry layout.
type TypesizeProfile struct {
	Arch               string
	HeaderSize         int
	MaxHostnameLength  int
	MaxToggleStrLength int
	MaxErrorHistory    int
	MaxDirAlias        int
	MaxRecipientLength int
	RetrieveListStep   int
	LinkMax            int
}

// CurrentProfile returns the profile this binary was built with.
func CurrentProfile() TypesizeProfile {
	return TypesizeProfile{
		Arch:               runtime.GOARCH,
		HeaderSize:         HeaderSize,
		MaxHostnameLength:  constants.MaxHostnameLength,
		MaxToggleStrLength: constants.MaxToggleStrLength,
		MaxErrorHistory:    constants.MaxErrorHistory,
		MaxDirAlias:        constants.MaxDirAlias,
		MaxRecipientLength: constants.MaxRecipientLength,
		RetrieveListStep:   constants.RetrieveListStepSize,
		LinkMax:            constants.LinkMax,
	}
}

func (p TypesizeProfile) lines() []string {
	return []string{
		"arch " + p.Arch,
		fmt.Sprintf("header_size %d", p.HeaderSize),
		fmt.Sprintf("max_hostname_length %d", p.MaxHostnameLength),
		fmt.Sprintf("max_toggle_str_length %d", p.MaxToggleStrLength),
		fmt.Sprintf("max_error_history %d", p.MaxErrorHistory),
		fmt.Sprintf("max_dir_alias %d", p.MaxDirAlias),
		fmt.Sprintf("max_recipient_length %d", p.MaxRecipientLength),
		fmt.Sprintf("retrieve_list_step %d", p.RetrieveListStep),
		fmt.Sprintf("link_max %d", p.LinkMax),
	}
}

// WriteTypesizeData stamps fifoDir/TYPESIZE_DATA with the current
// profile, the Go analogue of the installer's write_typesize_data().
func WriteTypesizeData(fifoDir string) error {
	path := filepath.Join(fifoDir, constants.TypesizeDataFile)
	content := strings.Join(CurrentProfile().lines(), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrap(err, errors.SharedAreaCreateFailed).WithMetadata("path", path)
	}
	return nil
}

// CheckTypesizeData compares the on-disk profile against the running
// binary's. A missing file is treated as first-run, not a mismatch.
func CheckTypesizeData(fifoDir string) error {
	path := filepath.Join(fifoDir, constants.TypesizeDataFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return WriteTypesizeData(fifoDir)
		}
		return errors.Wrap(err, errors.SharedAreaAttachFailed).WithMetadata("path", path)
	}
	defer f.Close()

	onDisk := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.SplitN(strings.TrimSpace(scanner.Text()), " ", 2)
		if len(fields) != 2 {
			continue
		}
		onDisk[fields[0]] = fields[1]
	}

	want := CurrentProfile()
	for _, line := range want.lines() {
		fields := strings.SplitN(line, " ", 2)
		if onDisk[fields[0]] != fields[1] {
			return errors.Wrap(
				fmt.Errorf("%s: on-disk %q, runtime %q", fields[0], onDisk[fields[0]], fields[1]),
				errors.SharedAreaTypesizeMismatch,
			).WithMetadata("path", path)
		}
	}
	return nil
}

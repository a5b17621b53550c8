// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package dirconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
[directory]
/local/incoming/dir
[files]
*.dat
*.txt
[destination]
[recipient]
ftp://user@host/remote/path
[options]
priority=3
age-limit=120

[directory]
/local/incoming/other
[files]
*.bin
[destination]
[recipient]
sftp://user2@host2/path2
[options]
priority=1
`

func TestParseMultipleDirectoryStanzas(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	d0 := entries[0]
	require.Equal(t, "/local/incoming/dir", d0.Directory)
	require.Equal(t, []string{"*.dat", "*.txt"}, d0.FileMasks)
	require.Len(t, d0.Destinations, 1)
	require.Equal(t, "ftp://user@host/remote/path", d0.Destinations[0].Recipient)
	require.Equal(t, 3, d0.Destinations[0].IntOption("priority", 0))
	require.Equal(t, 120, d0.Destinations[0].IntOption("age-limit", 0))

	d1 := entries[1]
	require.Equal(t, "/local/incoming/other", d1.Directory)
	require.Equal(t, 1, d1.Destinations[0].IntOption("priority", 0))
}

func TestParseMultipleDestinationsPerDirectory(t *testing.T) {
	content := `[directory]
/dir
[files]
*.dat
[destination]
[recipient]
ftp://a/path
[options]
priority=1
[destination]
[recipient]
ftp://b/path
[options]
priority=5
`
	entries, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Destinations, 2)
	require.Equal(t, "ftp://a/path", entries[0].Destinations[0].Recipient)
	require.Equal(t, "ftp://b/path", entries[0].Destinations[1].Recipient)
}

func TestParseRejectsContentBeforeFirstDirectoryTag(t *testing.T) {
	_, err := Parse(strings.NewReader("stray line\n[directory]\n/dir\n"))
	require.Error(t, err)
}

func TestParseRejectsDuplicatePathInOneStanza(t *testing.T) {
	_, err := Parse(strings.NewReader("[directory]\n/dir\n/dir2\n"))
	require.Error(t, err)
}

func TestOptionMissingKeyReturnsFalse(t *testing.T) {
	d := Destination{Options: []string{"priority=2"}}
	_, ok := d.Option("age-limit")
	require.False(t, ok)
	require.Equal(t, 42, d.IntOption("age-limit", 42))
}

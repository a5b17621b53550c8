// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// These directories mirror the on-disk layout in spec.md §6: all paths
// relative to p_work_dir (etc/, fifodir/, log/, files/incoming,
// files/outgoing, msg_dir).
var (
	configDir string // Directory for afd.yml and friends
	workDir   string // p_work_dir
	etcDir    string // p_work_dir/etc  (AFD_CONFIG, DIR_CONFIG, afd.users, GROUP_FILE)
	fifoDir   string // p_work_dir/fifodir (FSA/FRA/JID/DNB/MSA mappings, fifos)
	logDir    string // p_work_dir/log
	msgDir    string // p_work_dir/fifodir/incoming/msg (AFD_MSG_DIR)
	incoming  string // p_work_dir/files/incoming
	outgoing  string // p_work_dir/files/outgoing
)

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/afd"
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(fmt.Sprintf("failed to get home directory: %v", err))
		}
		configDir = filepath.Join(homeDir, ".afd")
	}

	workDir = "/var/afd"
	etcDir = filepath.Join(workDir, "etc")
	fifoDir = filepath.Join(workDir, "fifodir")
	logDir = filepath.Join(workDir, "log")
	msgDir = filepath.Join(fifoDir, "incoming", "msg")
	incoming = filepath.Join(workDir, "files", "incoming")
	outgoing = filepath.Join(workDir, "files", "outgoing")

	if err := EnsureDirectories(); err != nil {
		panic(fmt.Sprintf("failed to ensure configuration directories: %v", err))
	}
}

// SetWorkDir overrides p_work_dir (and everything derived from it) after
// a Config has been loaded with a non-default WorkDir. Must run before
// any package reads the derived directories.
func SetWorkDir(dir string) error {
	workDir = dir
	etcDir = filepath.Join(workDir, "etc")
	fifoDir = filepath.Join(workDir, "fifodir")
	logDir = filepath.Join(workDir, "log")
	msgDir = filepath.Join(fifoDir, "incoming", "msg")
	incoming = filepath.Join(workDir, "files", "incoming")
	outgoing = filepath.Join(workDir, "files", "outgoing")
	return EnsureDirectories()
}

// GetConfigDir returns the appropriate configuration directory.
// If running as root, it returns the system config directory;
// otherwise the user config directory.
func GetConfigDir() (string, error) {
	return configDir, nil
}

// GetWorkDir returns p_work_dir.
func GetWorkDir() string {
	return workDir
}

// GetEtcDir returns p_work_dir/etc, home of AFD_CONFIG/DIR_CONFIG/afd.users/GROUP_FILE.
func GetEtcDir() string {
	return etcDir
}

// GetFifoDir returns p_work_dir/fifodir, home of the shared-area mapped
// files (FSA_STAT_FILE, FRA_STAT_FILE, JOB_ID_DATA_FILE, DIR_NAME_FILE,
// FILE_MASK_FILE, PWB_DATA_FILE, CURRENT_MSG_LIST_FILE, TYPESIZE_DATA,
// MSG_CACHE_FILE) and the command fifos.
func GetFifoDir() string {
	return fifoDir
}

// GetLogDir returns p_work_dir/log, home of the rotating text/binary logs.
func GetLogDir() string {
	return logDir
}

// GetMsgDir returns AFD_MSG_DIR, home of per-job message option blobs.
func GetMsgDir() string {
	return msgDir
}

// GetIncomingDir returns p_work_dir/files/incoming, home of per-directory
// LS-data and compiled filter lists.
func GetIncomingDir() string {
	return incoming
}

// GetOutgoingDir returns p_work_dir/files/outgoing, home of staged job spools.
func GetOutgoingDir() string {
	return outgoing
}

// EnsureDirectories creates necessary directories if they do not exist.
func EnsureDirectories() error {
	dirs := []string{
		configDir,
		workDir,
		etcDir,
		fifoDir,
		logDir,
		msgDir,
		incoming,
		outgoing,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

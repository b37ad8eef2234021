// GlucoLink Core
// Copyright (c) 2026 The GlucoLink Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GlucoLink Core.
//
// GlucoLink Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GlucoLink Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GlucoLink Core.  If not, see <http://www.gnu.org/licenses/>.

// Package helpers holds small shared utilities: logging setup and
// platform directory resolution.
package helpers

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "glucolink"

// ConfigDir returns the directory holding config.toml and auth.toml.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir returns the directory holding the sync database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// LogDir returns the directory holding rotated log files.
func LogDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

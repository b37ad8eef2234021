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

package helpers

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggingCreatesDirAndWritesExtraWriter(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer

	require.NoError(t, InitLogging(logDir, []io.Writer{&buf}))
	log.Info().Msg("logging initialized")

	assert.DirExists(t, logDir)
	assert.Contains(t, buf.String(), "logging initialized")
}

func TestAppDirsShareAppName(t *testing.T) {
	t.Parallel()

	for _, dir := range []string{ConfigDir(), DataDir(), LogDir()} {
		assert.True(t, strings.HasSuffix(dir, "glucolink"), dir)
	}
}

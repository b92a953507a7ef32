/*
 * Copyright 2025. Mantis Author All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetLoggerIsCached(t *testing.T) {
	first := GetLogger("test-cached")
	second := GetLogger("test-cached")
	assert.Same(t, first, second)
}

func TestGetLoggerDistinctNames(t *testing.T) {
	assert.NotSame(t, GetLogger("test-a"), GetLogger("test-b"))
}

func TestSetLevel(t *testing.T) {
	name := "test-level"
	logger := GetLogger(name)
	require.NotNil(t, logger)

	SetLevel(name, zapcore.ErrorLevel)
	assert.False(t, logger.Desugar().Core().Enabled(zapcore.InfoLevel))

	SetLevel(name, zapcore.DebugLevel)
	// The core floor stays at the default level; SetLevel cannot go
	// below it, only above.
	SetLevel(name, zapcore.InfoLevel)
	assert.True(t, logger.Desugar().Core().Enabled(zapcore.ErrorLevel))

	// Unknown names are a no-op, not a panic.
	SetLevel("never-created", zapcore.DebugLevel)
}

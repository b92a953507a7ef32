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

package sqlbuild

// Capabilities describes what the target dialect can express. The
// caller supplies it per planning call; the candidate generator excludes
// strategies the dialect cannot render.
type Capabilities struct {
	Dialect                string
	WindowFunctions        bool
	CommonTableExpressions bool
}

// DefaultCapabilities is a fully featured ANSI target.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Dialect:                "ansi",
		WindowFunctions:        true,
		CommonTableExpressions: true,
	}
}

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

// Package expr compiles inline-measure expressions and validates their
// dependency graph before logical planning accepts them.
package expr

import (
	"fmt"

	"github.com/d5/tengo/v2"
)

const resultVar = "_r"

// Compiled is a validated inline-measure expression. The downstream SQL
// builder receives the raw text; the compiled form exists to reject
// malformed expressions and unknown symbols at planning time.
type Compiled struct {
	Name     string
	Raw      string
	deps     []string
	compiled *tengo.Compiled
}

// Dependencies returns the measure names the expression reads, in
// declaration order.
func (c *Compiled) Dependencies() []string {
	out := make([]string, len(c.deps))
	copy(out, c.deps)
	return out
}

// Compile parses and compiles an inline-measure expression. Every
// dependency is bound as a script variable so references outside the
// declared dependency list fail compilation.
func Compile(name, expression string, deps []string) (*Compiled, error) {
	content := fmt.Sprintf("%s := %s", resultVar, expression)
	script := tengo.NewScript([]byte(content))
	for _, dep := range deps {
		if err := script.Add(dep, float64(0)); err != nil {
			return nil, fmt.Errorf("bind dependency '%s' of inline measure '%s': %s", dep, name, err)
		}
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile inline measure '%s': %s", name, err)
	}
	return &Compiled{
		Name:     name,
		Raw:      expression,
		deps:     append([]string(nil), deps...),
		compiled: compiled,
	}, nil
}

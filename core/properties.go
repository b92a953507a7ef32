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

package core

import "go.uber.org/config"

// Properties populates typed values from an externally loaded
// configuration slice. The planner never loads configuration itself;
// callers hand it a value rooted at their own section.
type Properties interface {
	PopulateValue(instance interface{}) error
}

var EmptyProperties Properties = &emptyProperties{}

func NewProperties(value *config.Value) Properties {
	return &properties{rawValue: value}
}

type properties struct {
	rawValue *config.Value
}

func (props *properties) PopulateValue(instance interface{}) error {
	return props.rawValue.Populate(instance)
}

type emptyProperties struct {
}

func (props *emptyProperties) PopulateValue(instance interface{}) error {
	return nil
}

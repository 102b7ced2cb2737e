/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package jminus

import (
    `fmt`
)

// ConfigError occures when the allocator is configured with an invalid
// option, it is reported before any procedure is touched.
type ConfigError struct {
    Option string
    Value  string
    Reason string
}

func (self ConfigError) Error() string {
    return fmt.Sprintf("ConfigError(%s=%s): %s", self.Option, self.Value, self.Reason)
}

// InternalError occures when an internal invariant is violated, which is a
// defect in the lowering pass or in the allocator rather than a user error.
type InternalError struct {
    Proc   string
    Reason string
}

func (self InternalError) Error() string {
    if self.Proc != "" {
        return fmt.Sprintf("InternalError(%s): %s", self.Proc, self.Reason)
    } else {
        return fmt.Sprintf("InternalError: %s", self.Reason)
    }
}

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


package regalloc

import (
    `fmt`
)

// InvariantError reports a broken internal invariant, it is a programming
// defect in the lowering pass or in the allocator itself.
type InvariantError struct {
    Proc   string
    Reason string
}

func (self *InvariantError) Error() string {
    if self.Proc == "" {
        return "regalloc: " + self.Reason
    } else {
        return fmt.Sprintf("regalloc: %s: %s", self.Proc, self.Reason)
    }
}

func invariantf(proc string, format string, args ...interface{}) *InvariantError {
    return &InvariantError {
        Proc   : proc,
        Reason : fmt.Sprintf(format, args...),
    }
}

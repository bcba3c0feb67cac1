package diag

import (
	"fmt"
)

type Code uint16

// Codes are grouped by pipeline stage: 1xxx I/O, 3xxx static checks on typed
// source, 4xxx transpilation. New stages claim the next free thousand.
const (
	UnknownCode Code = 0

	IOReadFileError Code = 1001

	CheckTypeMismatch Code = 3001

	TranspileError   Code = 4001
	TranspileWarning Code = 4002
)

func (c Code) String() string {
	return fmt.Sprintf("TL%04d", uint16(c))
}

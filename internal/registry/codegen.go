package registry

import (
	"fmt"
	"strconv"

	"github.com/jaevor/go-nanoid"
)

const (
	digits = "0123456789"

	// MinCodeWidth and MaxCodeWidth bound the decimal width; 18 digits is the
	// widest space that fits an int64.
	MinCodeWidth = 2
	MaxCodeWidth = 18
)

// CodeGenerator returns candidate short codes. Candidates may collide with
// existing codes; the registry checks them.
type CodeGenerator func() int64

// NewDigitGenerator draws codes uniformly from the fixed-width decimal space
// [1, 10^width). Zero is never returned.
func NewDigitGenerator(width int) (CodeGenerator, error) {
	if width < MinCodeWidth || width > MaxCodeWidth {
		return nil, fmt.Errorf("code generator width %d outside [%d, %d]", width, MinCodeWidth, MaxCodeWidth)
	}

	gen, err := nanoid.CustomASCII(digits, width)
	if err != nil {
		return nil, fmt.Errorf("code generator width %d: %w", width, err)
	}

	return func() int64 {
		for {
			code, err := strconv.ParseInt(gen(), 10, 64)
			if err == nil && code > 0 {
				return code
			}
		}
	}, nil
}

package renderer

import (
	"fmt"
	"strconv"
	"strings"
)

// inputSeparators split the index list of a stage argument.
const inputSeparators = ",+;"

// ParseStageArg splits a stage argument of the form "path[:i[,j...]]" into
// the source path and its explicit input indices. explicit reports whether a
// suffix was present; "a.glsl:" is an explicit empty list. A colon followed by
// anything other than an index list is part of the path.
func ParseStageArg(arg string) (path string, inputs []int, explicit bool, err error) {
	colon := strings.LastIndexByte(arg, ':')
	if colon < 0 {
		return arg, nil, false, nil
	}
	path, suffix := arg[:colon], arg[colon+1:]
	if path == "" || isDriveLetter(path) {
		return arg, nil, false, nil
	}

	fields := strings.FieldsFunc(suffix, func(r rune) bool {
		return strings.ContainsRune(inputSeparators, r)
	})
	if strings.TrimSpace(suffix) != "" && len(fields) == 0 {
		return arg, nil, false, nil
	}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		n, convErr := strconv.Atoi(f)
		if convErr != nil {
			// not an index list, treat the colon as part of the file name
			return arg, nil, false, nil
		}
		if n < 0 {
			return "", nil, true, fmt.Errorf("%w: %d in %q", ErrInputIndex, n, arg)
		}
		inputs = append(inputs, n)
	}
	return path, inputs, true, nil
}

// isDriveLetter reports a bare Windows drive such as "C".
func isDriveLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

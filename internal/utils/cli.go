package utils

import (
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
)

var ErrEmptyCommand = errors.New("empty command")

// SplitStringIntoCommandAndArguments splits a command line using shell
// quoting rules, so `set "my key" 'a value'` yields two arguments.
// The command is lowercased; arguments are returned as typed.
func SplitStringIntoCommandAndArguments(line string) (string, []string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(words) == 0 {
		return "", nil, ErrEmptyCommand
	}

	return strings.ToLower(words[0]), words[1:], nil
}

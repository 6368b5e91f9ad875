package errors_test

import (
	"testing"

	"github.com/joe/treescan/pkg/errors"
)

func TestPatternMatcher_Categories(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{
			name:     "permission denied",
			errorMsg: "open /restricted/dir: permission denied",
			expected: errors.CategoryPermission,
		},
		{
			name:     "operation not permitted",
			errorMsg: "lstat /proc/1/root: operation not permitted",
			expected: errors.CategoryPermission,
		},
		{
			name:     "missing path",
			errorMsg: "stat /var/data/archive: no such file or directory",
			expected: errors.CategoryPath,
		},
		{
			name:     "root is a file",
			errorMsg: "readdir /tmp/a.txt: not a directory",
			expected: errors.CategoryPath,
		},
		{
			name:     "connection refused",
			errorMsg: "dial tcp 10.0.0.2:22: connect: connection refused",
			expected: errors.CategoryRemote,
		},
		{
			name:     "ssh auth failure",
			errorMsg: "ssh: handshake failed: ssh: unable to authenticate",
			expected: errors.CategoryRemote,
		},
		{
			name:     "no usable key",
			errorMsg: "no usable SSH authentication method found",
			expected: errors.CategoryRemote,
		},
		{
			name:     "unrecognized message",
			errorMsg: "something very strange happened",
			expected: errors.CategoryUnknown,
		},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_CaseInsensitive(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{
			name:     "uppercase permission denied",
			errorMsg: "PERMISSION DENIED",
			expected: errors.CategoryPermission,
		},
		{
			name:     "mixed case connection refused",
			errorMsg: "Connection Refused by remote host",
			expected: errors.CategoryRemote,
		},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

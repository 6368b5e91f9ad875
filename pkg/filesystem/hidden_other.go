//go:build !windows

package filesystem

// POSIX filesystems have no hidden attribute bit; hiding is a naming
// convention handled by the scanner's dotfile matcher.
const hiddenAttributeSupported = false

func hiddenAttribute(string) (bool, error) {
	return false, nil
}

//go:build windows

package filesystem

import "golang.org/x/sys/windows"

// NTFS and FAT volumes expose the DOS hidden attribute bit.
const hiddenAttributeSupported = true

func hiddenAttribute(name string) (bool, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false, err
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false, err
	}

	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0, nil
}

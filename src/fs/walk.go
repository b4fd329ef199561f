// Package fs contains helpers for finding files the build tool has written.
package fs

import (
	"os"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// Walk implements an equivalent to filepath.Walk.
// It's implemented over github.com/karrick/godirwalk but the provided interface doesn't use that
// to make it a little easier to handle.
func Walk(rootPath string, callback func(name string, isDir bool) error) error {
	// Compatibility with filepath.Walk which allows passing a file as the root argument.
	if info, err := os.Lstat(rootPath); err != nil {
		return err
	} else if !info.IsDir() {
		return callback(rootPath, false)
	}
	return godirwalk.Walk(rootPath, &godirwalk.Options{
		Callback: func(name string, info *godirwalk.Dirent) error {
			return callback(name, info.IsDir())
		},
		// The build tool's output trees are full of symlinks back into the workspace.
		FollowSymbolicLinks: false,
		Unsorted:            true,
	})
}

// FindFiles returns every file beneath rootPath whose name ends in the given suffix, sorted.
func FindFiles(rootPath, suffix string) ([]string, error) {
	var files []string
	if err := Walk(rootPath, func(name string, isDir bool) error {
		if !isDir && strings.HasSuffix(name, suffix) {
			files = append(files, name)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

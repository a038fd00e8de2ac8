package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

var CheckCrashes = true
var CheckFailed error

func Check(e error) {
	if e != nil {
		CheckFailed = e
		if CheckCrashes {
			panic(e)
		}
	}
}

func CloseFile(f fs.File) {
	Check(f.Close())
}

func WriteFile(name string, data []byte) {
	err := os.WriteFile(name, data, 0644)
	Check(err)
}

func ReadFile(name string) []byte {
	data, err := os.ReadFile(name)
	Check(err)
	return data
}

func DeleteFile(name string) {
	err := os.Remove(name)
	if !errors.Is(err, os.ErrNotExist) {
		Check(err)
	}
}

func FileExists(fsys FS, name string) bool {
	file, err := fsys.Open(name)
	if err == nil {
		CloseFile(file)
		return true
	} else {
		return false
	}
}

func MakeDir(name string) {
	err := os.MkdirAll(name, 0755)
	Check(err)
}

func GetFiles(fsys FS, dir string, pattern string) []string {
	var files []string
	entries, err := fsys.ReadDir(dir)
	Check(err)
	for _, entry := range entries {
		matched, err := filepath.Match(pattern, entry.Name())
		Check(err)
		if matched {
			files = append(files, dir+"/"+entry.Name())
		}
	}
	return files
}

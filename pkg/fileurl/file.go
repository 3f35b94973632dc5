// Package fileurl 提供文件路径相关的辅助函数
package fileurl

import (
	"os"
	"path/filepath"
)

// IsDir checks whether the path is a directory
// IsDir 检查路径是否为目录
func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// IsExist checks whether the file or directory exists
// IsExist 检查文件或目录是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// IsPermission checks whether the error of accessing dst is a permission error
// IsPermission 检查访问 dst 的错误是否为权限错误
func IsPermission(dst string) bool {
	_, err := os.Stat(dst)
	return os.IsPermission(err)
}

// CreatePath creates the parent directory of dst if it does not exist
// CreatePath 创建 dst 的父目录（若不存在）
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if IsExist(dir) {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// GetExePath returns the directory of the running executable
// GetExePath 获取当前可执行文件所在目录
func GetExePath() string {
	exePath, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exePath)
}

// GetAbsPath resolves path against root when path is relative
// GetAbsPath 相对路径时基于 root 解析出绝对路径
func GetAbsPath(path string, root string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(filepath.Join(root, path))
}

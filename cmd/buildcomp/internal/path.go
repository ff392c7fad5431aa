package internal

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveRoot 解析构建树根目录的绝对路径。
// 未指定时从当前目录向上查找包含 settingsFile 的目录；找不到则使用当前目录。
func ResolveRoot(rootPath string, settingsFile string) (string, error) {
	explicit := rootPath != "" && rootPath != "."
	if !explicit {
		rootPath = "."
	}

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	if explicit {
		return absPath, nil
	}
	if found := findSettingsDir(absPath, settingsFile); found != "" {
		return found, nil
	}
	return absPath, nil
}

// findSettingsDir 返回从 dir 起向上第一个包含 settingsFile 的目录。
// 若一直到文件系统根都未找到则返回空字符串。
func findSettingsDir(dir string, settingsFile string) string {
	for {
		if info, err := os.Stat(filepath.Join(dir, settingsFile)); err == nil && !info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// DefaultDBPath 基于构建树根目录生成默认的 SQLite 历史库路径。
// 返回路径字符串或构造失败时的 error。
func DefaultDBPath(root string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dataDir := filepath.Join(homeDir, ".buildcomp", "data")
	filename := fmt.Sprintf("%s-%s.db", sanitizeRepoName(filepath.Base(root)), rootHash(root, 12))
	return filepath.Join(dataDir, filename), nil
}

// rootHash 返回根目录路径 sha1 的前 n 个十六进制字符。
func rootHash(root string, n int) string {
	hash := sha1.Sum([]byte(root))
	return hex.EncodeToString(hash[:])[:n]
}

// sanitizeRepoName 将名称中的危险字符替换为安全下划线。
// 用于生成文件系统友好的标识符。
func sanitizeRepoName(name string) string {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "root"
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

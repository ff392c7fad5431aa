package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/DreamCats/buildcomp/internal/runlog"
)

// SetupLogging 为子命令创建本次运行的日志文件，并把标准库 log 同时输出到 stderr 与该文件。
// 返回写入同一文件的结构化日志器，调用方负责 Close。
func SetupLogging(subcommand string, root string, level string) (*runlog.Logger, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(homeDir, ".buildcomp", "logs")
	prefix := "buildcomp-" + subcommand + "-" + sanitizeRepoName(filepath.Base(root)) + "-" + rootHash(root, 8)
	logger, logPath, err := runlog.Open(logDir, prefix, level)
	if err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logger))
	logger.Info("Log file opened", map[string]interface{}{"path": logPath, "root": root})
	return logger, nil
}

package execution

import (
	"io"
	"sync"

	"search-chat/internal/logger"
)

// DefaultErrorLogPath 回合失败日志的默认路径。
const DefaultErrorLogPath = "logs/error.log"

// log 复用全局 logger。
var log = logger.Named("engine")

var (
	errorLog           = logger.Named("error")
	errorLogMu         sync.Mutex
	errorLogConfigured bool
	errorLogCloser     io.Closer
)

// ensureErrorLogger 把回合失败单独写入 error.log，只在首次调用时生效。
func ensureErrorLogger(path string) {
	errorLogMu.Lock()
	defer errorLogMu.Unlock()
	if errorLogConfigured {
		return
	}
	errorLogConfigured = true
	if path == "" {
		path = DefaultErrorLogPath
	}
	entry, closer, _, err := logger.SetupComponentFile("error", path)
	if err != nil {
		log.Warnf("failed to initialize error log (%s): %v", path, err)
		return
	}
	errorLog = entry
	errorLogCloser = closer
}

// CloseErrorLog 关闭 error.log 句柄（如已打开）。
func CloseErrorLog() {
	errorLogMu.Lock()
	defer errorLogMu.Unlock()
	if errorLogCloser != nil {
		_ = errorLogCloser.Close()
		errorLogCloser = nil
	}
}

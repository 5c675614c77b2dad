package platform

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Hook writes every entry to a per-day file under logPath, switching files at midnight.
type Hook struct {
	mu       sync.Mutex
	writer   *os.File
	logPath  string
	fileName string
	fileDate string
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	timer := time.Now().Format("2006-01-02")
	//需要切换日志文件
	if h.fileDate != timer || h.writer == nil {
		writer, err := openLogFile(h.logPath, h.fileName, timer)
		if err != nil {
			return err
		}
		if h.writer != nil {
			h.writer.Close()
		}
		h.fileDate = timer
		h.writer = writer
	}
	_, err = h.writer.Write(line)
	return err
}

type LogFormatter struct {
}

func (m *LogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	b.WriteString(fmt.Sprintf("[%s] [%s] %s\n", timestamp, entry.Level, entry.Message))
	return b.Bytes(), nil
}

func openLogFile(logPath, fileName, date string) (*os.File, error) {
	if err := os.MkdirAll(logPath, os.ModePerm); err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("%s/%s-%s.log", logPath, date, fileName)
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
}

// Logger is shared by every package. It writes to stderr until InitLogger adds the file hook.
var Logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&LogFormatter{})
	logger.SetOutput(out)
	return logger
}

// InitLogger configures Logger in place so package-level copies of the pointer stay valid.
func InitLogger(logPath string, fileName string, level logrus.Level) {
	Logger.SetLevel(level)
	if logPath == "" {
		return
	}
	timer := time.Now().Format("2006-01-02")
	writer, err := openLogFile(logPath, fileName, timer)
	if err != nil {
		Logger.Errorf("open log file under %s: %s", logPath, err)
		return
	}
	Logger.AddHook(&Hook{
		writer:   writer,
		logPath:  logPath,
		fileName: fileName,
		fileDate: timer,
	})
}

package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const dateLayout = "2006-01-02"

// New builds the process logger. Entries go to stdout and, when logDir is set,
// to a daily file app-YYYY-MM-DD.log that rotates at midnight.
// The returned func stops rotation and closes the current file.
func New(production bool, logDir string, retentionDays int) (*zap.Logger, func(), error) {
	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	if production {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	cleanup := func() {}
	if logDir != "" {
		file, err := NewDailyFile(logDir, retentionDays)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithCancel(context.Background())
		go file.Run(ctx)
		sinks = append(sinks, file)
		cleanup = func() {
			cancel()
			_ = file.Close()
		}
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()), cleanup, nil
}

// DailyFile is a WriteSyncer over a log file that is swapped when the date changes.
type DailyFile struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	currentDate   string
	file          *os.File
	now           func() time.Time
}

func NewDailyFile(dir string, retentionDays int) (*DailyFile, error) {
	if retentionDays <= 0 || retentionDays > 7 {
		retentionDays = 7
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &DailyFile{dir: dir, retentionDays: retentionDays, now: time.Now}
	d.currentDate = d.now().Format(dateLayout)
	file, err := openLogFile(dir, d.currentDate)
	if err != nil {
		return nil, err
	}
	d.file = file
	cleanupOldLogs(dir, retentionDays, d.now())
	return d, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return len(p), nil
	}
	return d.file.Write(p)
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

// Rotate opens a new file if the date has changed since the last write target was opened.
func (d *DailyFile) Rotate() {
	date := d.now().Format(dateLayout)
	d.mu.Lock()
	defer d.mu.Unlock()
	if date == d.currentDate {
		return
	}
	newFile, err := openLogFile(d.dir, date)
	if err != nil {
		return
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = newFile
	d.currentDate = date
	cleanupOldLogs(d.dir, d.retentionDays, d.now())
}

func (d *DailyFile) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Rotate()
		case <-ctx.Done():
			return
		}
	}
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func openLogFile(logDir, date string) (*os.File, error) {
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(logDir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -(retentionDays - 1)).Format(dateLayout)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		if _, err := time.Parse(dateLayout, datePart); err != nil {
			continue
		}
		if datePart < cutoff {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}

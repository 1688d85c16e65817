package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	InfoColor    = "\033[1;34m%s\033[0m"
	NoticeColor  = "\033[1;36m%s\033[0m"
	WarningColor = "\033[1;33m%s\033[0m"
	ErrorColor   = "\033[1;31m%s\033[0m"
	DebugColor   = "\033[0;36m%s\033[0m"
	ClearLine    = "\r\033[K"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	// Enabled controls whether logging is active
	Enabled = true
	// TestMode controls whether we're in test mode (suppresses all logs)
	TestMode = false
	// Output is the writer where logs are written
	Output  io.Writer = os.Stdout
	bar     *progressbar.ProgressBar
	history []string

	format     = FormatText
	level      = zapcore.InfoLevel
	structured *zap.Logger
)

// SetFormat switches between colored console output and JSON lines.
func SetFormat(f string) error {
	switch strings.ToLower(f) {
	case "", FormatText:
		format = FormatText
		if structured != nil {
			_ = structured.Sync()
			structured = nil
		}
	case FormatJSON:
		format = FormatJSON
		structured = newStructured()
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", f)
	}
	return nil
}

// SetLevel sets the minimum level: debug, info, warn or error.
func SetLevel(l string) error {
	parsed, err := zapcore.ParseLevel(l)
	if err != nil {
		return fmt.Errorf("unknown log level %q: %w", l, err)
	}
	level = parsed
	if format == FormatJSON {
		structured = newStructured()
	}
	return nil
}

func newStructured() *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(Output),
		level,
	)
	return zap.New(core)
}

// emit sends a message to the JSON logger; it reports false in text mode.
func emit(lvl zapcore.Level, format string, args ...interface{}) bool {
	if structured == nil {
		return false
	}
	if ce := structured.Check(lvl, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
	return true
}

// StartProgress initializes a progress bar with the given description and total
func StartProgress(description string, total int) {
	if TestMode || structured != nil {
		return
	}

	// Clear any existing progress bar
	if bar != nil {
		bar.Finish()
		bar = nil
	}

	bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)
}

// UpdateProgress updates the progress bar
func UpdateProgress() {
	if TestMode {
		return
	}

	if bar != nil {
		bar.Add(1)
	}
}

// FinishProgress completes the progress bar
func FinishProgress() {
	if TestMode {
		return
	}

	if bar != nil {
		bar.Finish()
		bar = nil
	}
}

// sleep adds a small delay between log messages for better readability
func sleep() {
	if TestMode || bar == nil {
		return
	}

	time.Sleep(50 * time.Millisecond)
}

// shouldKeepInHistory determines if a success message should be kept in history
func shouldKeepInHistory(message string) bool {
	importantMessages := []string{
		"Built",
		"Wrote",
		"Published",
		"Snapshot",
	}

	for _, important := range importantMessages {
		if strings.Contains(message, important) {
			return true
		}
	}
	return false
}

// printWithHistory prints a message and maintains the history
func printWithHistory(message string, isSuccess bool) {
	if TestMode || !Enabled {
		return
	}

	if bar != nil {
		if isSuccess && shouldKeepInHistory(message) {
			exists := false
			for _, msg := range history {
				if msg == message {
					exists = true
					break
				}
			}
			if !exists {
				history = append(history, message)
			}
		}

		fmt.Fprint(Output, ClearLine)
		for _, msg := range history {
			fmt.Fprintln(Output, msg)
		}
		fmt.Fprintln(Output, message)

		bar.RenderBlank()
	} else {
		fmt.Fprintln(Output, message)
	}
}

// Log writes a message if logging is enabled
func Log(format string, args ...interface{}) {
	if !Enabled || TestMode {
		return
	}
	if emit(zapcore.InfoLevel, format, args...) {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}

// Info logs an informational message
func Info(format string, args ...interface{}) {
	if TestMode || level > zapcore.InfoLevel || emit(zapcore.InfoLevel, format, args...) {
		return
	}

	sleep()
	message := fmt.Sprintf(InfoColor, fmt.Sprintf("ℹ️  "+format, args...))
	printWithHistory(message, false)
}

// Success logs a success message
func Success(format string, args ...interface{}) {
	if TestMode || level > zapcore.InfoLevel || emit(zapcore.InfoLevel, format, args...) {
		return
	}

	sleep()
	message := fmt.Sprintf(NoticeColor, fmt.Sprintf("✅ "+format, args...))
	printWithHistory(message, true)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if TestMode || emit(zapcore.ErrorLevel, format, args...) {
		return
	}

	sleep()
	message := fmt.Sprintf(ErrorColor, fmt.Sprintf("❌ "+format, args...))
	printWithHistory(message, false)
}

// Reset resets the logger to its default state
func Reset() {
	Enabled = true
	TestMode = false
	Output = os.Stdout
	level = zapcore.InfoLevel
	_ = SetFormat(FormatText)
}

// SetTestMode enables test mode (suppresses all logs)
func SetTestMode(enabled bool) {
	TestMode = enabled
}

func Warning(format string, args ...interface{}) {
	if TestMode || level > zapcore.WarnLevel || emit(zapcore.WarnLevel, format, args...) {
		return
	}

	sleep()
	message := fmt.Sprintf(WarningColor, fmt.Sprintf("⚠️  "+format, args...))
	printWithHistory(message, false)
}

func Debug(format string, args ...interface{}) {
	if TestMode || level > zapcore.DebugLevel || emit(zapcore.DebugLevel, format, args...) {
		return
	}

	sleep()
	message := fmt.Sprintf(DebugColor, fmt.Sprintf("🔍 "+format, args...))
	printWithHistory(message, false)
}

func Section(name string) {
	if TestMode || level > zapcore.InfoLevel || emit(zapcore.InfoLevel, "%s", name) {
		return
	}

	message := fmt.Sprintf("\n%s\n%s", strings.Repeat("=", len(name)+4), name)
	printWithHistory(message, false)
}

// Sync flushes the JSON logger.
func Sync() {
	if structured != nil {
		_ = structured.Sync()
	}
}

// Package logging configures the agent's logrus output: a colored key=value
// console format, or JSON for log shippers.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ColoredFormatter renders entries as "time LEVEL message key=value ..." with
// operation identifiers highlighted.
type ColoredFormatter struct {
	// Include timestamp in the output
	TimestampFormat string
	// Customize field sorting
	SortingFunc func([]string) []string
	// Disable colors when not in terminal
	DisableColors bool
}

func NewColoredFormatter() *ColoredFormatter {
	return &ColoredFormatter{
		TimestampFormat: time.RFC3339,
		SortingFunc:     defaultFieldSorting,
		DisableColors:   color.NoColor,
	}
}

// New returns a logger at the named level ("debug", "info", ...) using the colored
// formatter, or logrus' JSON formatter when format is "json".
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "", "colored", "text":
		logger.SetFormatter(NewColoredFormatter())
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logger, nil
}

func (f *ColoredFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	if f.SortingFunc != nil {
		keys = f.SortingFunc(keys)
	} else {
		sort.Strings(keys)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	paint := func(c *color.Color, s string) string {
		if f.DisableColors {
			return s
		}
		return c.Sprint(s)
	}

	levelColor := getLevelColor(entry.Level)

	b.WriteString(paint(color.New(color.FgYellow), entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(paint(levelColor, fmt.Sprintf("%-7s", strings.ToUpper(entry.Level.String()))))
	b.WriteByte(' ')
	b.WriteString(paint(levelColor, entry.Message))

	for _, k := range keys {
		fieldColor := color.New(color.FgCyan)
		if isImportantField(k) {
			fieldColor = color.New(color.FgGreen)
		}

		b.WriteByte(' ')
		b.WriteString(paint(fieldColor, k+"="))
		b.WriteString(paint(color.New(color.FgWhite), formatValue(entry.Data[k])))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	case fmt.Stringer:
		return fmt.Sprintf("%q", v.String())
	default:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(jsonBytes)
	}
}

func getLevelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	case logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

var priorityFields = map[string]int{
	"operation": 1,
	"kind":      2,
	"amount":    3,
	"tx_hash":   4,
	"tier":      5,
	"code":      6,
	"error":     7,
}

func isImportantField(field string) bool {
	return priorityFields[field] != 0
}

func defaultFieldSorting(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		iPriority := priorityFields[keys[i]]
		jPriority := priorityFields[keys[j]]
		if iPriority != 0 && jPriority != 0 {
			return iPriority < jPriority
		}
		if iPriority != 0 {
			return true
		}
		if jPriority != 0 {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

package dirhash

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

var globalVerboseLevel int
var debugFlags map[string]bool

// logOutput receives every [VERBOSE-n] and [TRACE] line. The CLI points it at the
// command's stderr so that stdout carries only results.
var logOutput io.Writer = os.Stderr

// SetVerboseLevel sets the global verbose level
func SetVerboseLevel(level int) {
	globalVerboseLevel = level
}

// GetVerboseLevel returns the current verbose level
func GetVerboseLevel() int {
	return globalVerboseLevel
}

// SetLogOutput redirects verbose and trace output; nil restores stderr
func SetLogOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logOutput = w
}

// VerboseEnter traces entry to an operation at level 3 and returns the matching exit trace.
// Use as: defer VerboseEnter()()
func VerboseEnter() func() {
	if globalVerboseLevel < 3 {
		return func() {} // No-op
	}

	// Caller is the operation being traced (Recompute, Purge, ...)
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	// Drop the import path and receiver so traces read "Update", not "...pkg.(*Store).Update"
	funcName := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(funcName, "."); idx != -1 {
		funcName = funcName[idx+1:]
	}

	fmt.Fprintf(logOutput, "[TRACE] Entering function: %s\n", funcName)
	return func() {
		fmt.Fprintf(logOutput, "[TRACE] Exiting function: %s\n", funcName)
	}
}

// VerboseLog logs a message at the specified verbose level
func VerboseLog(level int, format string, args ...interface{}) {
	if globalVerboseLevel < level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(logOutput, "[VERBOSE-%d] %s", level, msg)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(logOutput)
	}
}

// debugLog logs at level 3 when the category is enabled, prefixed with the category
// so that refresh and purge output can be told apart in one stream.
func debugLog(category string, format string, args ...interface{}) {
	if IsDebugEnabled(category) {
		VerboseLog(3, category+": "+format, args...)
	}
}

// SetDebugFlags enables debug categories from a comma-separated list.
// Accepts bare names ("refresh,purge") and name:value pairs ("refresh:true,purge:off").
func SetDebugFlags(flagsStr string) {
	debugFlags = make(map[string]bool)
	if flagsStr == "" {
		return
	}

	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		name, value, hasValue := strings.Cut(flag, ":")
		enabled := true // a bare category name switches it on
		if hasValue {
			switch strings.ToLower(strings.TrimSpace(value)) {
			case "false", "0", "no", "off":
				enabled = false
			}
		}

		debugFlags[strings.ToLower(name)] = enabled
	}
}

// IsDebugEnabled reports whether a debug category is switched on
func IsDebugEnabled(category string) bool {
	if debugFlags == nil {
		return false
	}
	return debugFlags[strings.ToLower(category)]
}

package logger

import (
	"time"
)

// Console implements a console based logger.
type Console struct {
	Enabled          bool
	UseConsoleWriter bool
}

// LogFile implements a file based logger.
type LogFile struct {
	Enabled bool
	Path    string

	AccessLog        string
	AccessMaxSize    int
	AccessMaxBackups int
	AccessMaxAge     int

	ErrorLog        string
	ErrorMaxSize    int
	ErrorMaxBackups int
	ErrorMaxAge     int

	InfoLog        string
	InfoMaxSize    int
	InfoMaxBackups int
	InfoMaxAge     int

	TraceLog        string
	TraceMaxSize    int
	TraceMaxBackups int
	TraceMaxAge     int

	WarnLog        string
	WarnMaxSize    int
	WarnMaxBackups int
	WarnMaxAge     int
}

// DataDog implements the datadog log forwarding config.
type DataDog struct {
	Enabled       bool
	ServiceName   string
	APIKey        string        // API Key defined at datadog
	Site          string        // Regional Site aka DD_SITE ("datadoghq.eu")
	Source        string        // ddsource attribute
	Tags          string        // ddtags attribute, comma separated
	MinLevel      string        // lowest level that is forwarded
	Timeout       time.Duration // how long to wait to send a batch to datadog.
	BufferSize    int           // queued log lines before new ones are dropped
	RatePerSecond float64       // max forwarded lines per second
}

// Log implements the logger config.
type Log struct {
	LogLevel string // info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole if true the webservice access log is written to the console.
	// Does not overrule flag Console.Enabled!
	// If Console.Enabled is false, still no access log output to the console will be shown.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log health check calls

	AppName     string
	ServiceName string

	// Console used mainly for docker and dev.
	Console Console

	// File based rolling logs.
	File LogFile

	// DataDog log intake.
	DataDog DataDog
}

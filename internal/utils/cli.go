package utils

import (
	"flag"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ServerFlags holds the command-line overrides for the server binary.
// Zero values mean "not set" and leave the config file/env value alone.
type ServerFlags struct {
	ConfigPath string
	Dir        string
	Port       int
	HTTPPort   int
	LogLevel   string
}

func HandleCLIInputs() *ServerFlags {
	f := &ServerFlags{}
	flag.StringVar(&f.ConfigPath, "config", "", "Path to a jewelstore.yaml config file")
	flag.StringVar(&f.Dir, "dir", "", "Data directory to be used for this instance")
	flag.IntVar(&f.Port, "port", 0, "Port to use for the TCP Server")
	flag.IntVar(&f.HTTPPort, "http-port", 0, "Port to use for the HTTP API (-1 disables it)")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()
	return f
}

// SplitCommandLine splits a REPL line into the command name and its
// arguments. Quoted words stay together, so multi-word fields can be passed
// as "Gold Ring".
func SplitCommandLine(line string) (string, []string, error) {
	words, err := shellquote.Split(strings.TrimSpace(line))
	if err != nil {
		return "", nil, err
	}
	if len(words) == 0 {
		return "", nil, nil
	}
	return strings.ToLower(words[0]), words[1:], nil
}

package api

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/b0bbywan/go-rtkit/config"
	"github.com/b0bbywan/go-rtkit/logger"
)

const (
	UNKNOWN         = "unknown"
	OS_RELEASE_FILE = "/etc/os-release"
)

var osVersion = readOSRelease(OS_RELEASE_FILE)

type ServerInfo struct {
	Hostname   string `json:"hostname"`
	OSPlatform string `json:"os_platform"`
	OSVersion  string `json:"os_version"`
	APISW      string `json:"api_sw"`
	APIVersion string `json:"api_version"`
	Events     bool   `json:"events"`
}

func parseKeyValue(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		out[key] = strings.Trim(value, `"`)
	}

	return out, scanner.Err()
}

func readOSRelease(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return UNKNOWN
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("[api] failed to close %s: %v", path, err)
		}
	}()

	content, err := parseKeyValue(file)
	if err != nil {
		logger.Debug("[api] failed to parse %s: %v", path, err)
	}

	switch {
	case content["PRETTY_NAME"] != "":
		return content["PRETTY_NAME"]
	case content["NAME"] != "":
		return content["NAME"]
	default:
		return UNKNOWN
	}
}

func (s *Server) serverInfo() ServerInfo {
	hostname, err := os.Hostname()
	if err != nil {
		logger.Debug("[api] failed to get hostname: %v", err)
		hostname = UNKNOWN
	}

	return ServerInfo{
		Hostname:   hostname,
		OSPlatform: runtime.GOOS + "/" + runtime.GOARCH,
		OSVersion:  osVersion,
		APISW:      config.AppName,
		APIVersion: config.AppVersion,
		Events:     s.broadcaster != nil,
	}
}

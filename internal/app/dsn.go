package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// dsnInfo is the loggable part of a database DSN. The password is never kept.
type dsnInfo struct {
	Type        string
	Host        string
	Port        int
	User        string
	Name        string
	SSLMode     string
	Path        string
	PasswordSet bool
}

func (d dsnInfo) fields() log.Fields {
	if d.Type == "sqlite" {
		return log.Fields{"db_type": d.Type, "db_path": d.Path}
	}
	return log.Fields{
		"db_type":         d.Type,
		"db_host":         d.Host,
		"db_port":         d.Port,
		"db_user":         d.User,
		"db_name":         d.Name,
		"db_sslmode":      d.SSLMode,
		"db_password_set": d.PasswordSet,
	}
}

func describeDSN(dsn string) dsnInfo {
	info, err := parseDSN(dsn)
	if err != nil {
		return dsnInfo{Type: "unknown"}
	}
	return info
}

func parseDSN(dsn string) (dsnInfo, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return dsnInfo{}, fmt.Errorf("empty dsn")
	}

	lowered := strings.ToLower(trimmed)
	if !strings.HasPrefix(lowered, "postgres://") && !strings.HasPrefix(lowered, "postgresql://") {
		if strings.Contains(lowered, "host=") {
			return parseKeywordDSN(trimmed), nil
		}
		pathPart := trimmed
		if strings.HasPrefix(lowered, "file:") {
			pathPart = trimmed[len("file:"):]
		}
		pathPart, _, _ = strings.Cut(pathPart, "?")
		return dsnInfo{Type: "sqlite", Path: strings.TrimSpace(pathPart)}, nil
	}

	u, errParse := url.Parse(trimmed)
	if errParse != nil {
		return dsnInfo{}, fmt.Errorf("parse dsn: %w", errParse)
	}
	port := 5432
	if rawPort := strings.TrimSpace(u.Port()); rawPort != "" {
		parsedPort, errPort := strconv.Atoi(rawPort)
		if errPort != nil {
			return dsnInfo{}, fmt.Errorf("parse port: %w", errPort)
		}
		port = parsedPort
	}
	info := dsnInfo{
		Type:    "postgres",
		Host:    strings.TrimSpace(u.Hostname()),
		Port:    port,
		Name:    strings.TrimSpace(strings.TrimPrefix(u.Path, "/")),
		SSLMode: strings.TrimSpace(u.Query().Get("sslmode")),
	}
	if u.User != nil {
		info.User = strings.TrimSpace(u.User.Username())
		_, info.PasswordSet = u.User.Password()
	}
	if info.SSLMode == "" {
		info.SSLMode = "disable"
	}
	return info, nil
}

// parseKeywordDSN reads a libpq "key=value" connection string.
func parseKeywordDSN(dsn string) dsnInfo {
	info := dsnInfo{Type: "postgres", Port: 5432, SSLMode: "disable"}
	for _, field := range strings.Fields(dsn) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `'"`)
		switch strings.ToLower(key) {
		case "host":
			info.Host = value
		case "port":
			if port, errPort := strconv.Atoi(value); errPort == nil {
				info.Port = port
			}
		case "user":
			info.User = value
		case "dbname":
			info.Name = value
		case "sslmode":
			info.SSLMode = value
		case "password":
			info.PasswordSet = value != ""
		}
	}
	return info
}

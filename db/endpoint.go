package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Endpoint names a specific remote database: which driver speaks to it, the
// host and port it listens on, and the service it exposes.
//
// Textual form: <scheme>:<host>:<port>:<service-id>, for example
//
//	oracle:oracle.fiap.com.br:1521:orcl
//	postgres:localhost:5432:fintech
//	sqlite3:::/var/lib/fintech.db
type Endpoint struct {
	Scheme  string
	Host    string
	Port    int // 0 means the driver's default port
	Service string
	// SID marks an Oracle system identifier rather than a service name.
	// Only the legacy JDBC thin form sets it.
	SID bool
}

const (
	jdbcOracleThin = "jdbc:oracle:thin:@"
	jdbcOracle     = "jdbc:oracle:thin:"
)

// RedactEndpoint returns raw with anything up to and including the last '@'
// replaced, so an endpoint carrying user/password never reaches an error or
// a log line.
func RedactEndpoint(raw string) string {
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		return "[REDACTED]@" + raw[i+1:]
	}
	return raw
}

func endpointErr(raw, format string, args ...any) error {
	return fmt.Errorf("fintech/db: endpoint %q: %s", RedactEndpoint(raw), fmt.Sprintf(format, args...))
}

// ParseEndpoint parses the textual endpoint form. The JDBC thin URLs
// "jdbc:oracle:thin:@host:port:sid" and "jdbc:oracle:thin:@//host:port/service"
// are accepted as well and map to scheme "oracle". Credentials embedded in
// the endpoint are rejected; the account travels separately.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, jdbcOracleThin); ok {
		return parseJDBCThin(raw, rest)
	}
	if strings.HasPrefix(raw, jdbcOracle) || strings.Contains(raw, "@") {
		return Endpoint{}, endpointErr(raw, "credentials must not be part of the endpoint")
	}

	parts := strings.SplitN(raw, ":", 4)
	if len(parts) != 4 {
		return Endpoint{}, endpointErr(raw, "want <scheme>:<host>:<port>:<service-id>")
	}
	ep := Endpoint{Scheme: parts[0], Host: parts[1], Service: parts[3]}
	if ep.Scheme == "" {
		return Endpoint{}, endpointErr(raw, "missing scheme")
	}
	if ep.Service == "" {
		return Endpoint{}, endpointErr(raw, "missing service id")
	}
	port, err := parsePort(parts[2])
	if err != nil {
		return Endpoint{}, endpointErr(raw, "%v", err)
	}
	ep.Port = port
	return ep, nil
}

func parseJDBCThin(raw, rest string) (Endpoint, error) {
	ep := Endpoint{Scheme: OracleDriver{}.Name()}
	if strings.Contains(rest, "@") {
		return Endpoint{}, endpointErr(raw, "credentials must not be part of the endpoint")
	}

	var hostPort string
	if svc, ok := strings.CutPrefix(rest, "//"); ok {
		// //host:port/service
		var found bool
		hostPort, ep.Service, found = strings.Cut(svc, "/")
		if !found {
			return Endpoint{}, endpointErr(raw, "missing service name")
		}
	} else {
		// host:port:sid
		i := strings.LastIndex(rest, ":")
		if i < 0 {
			return Endpoint{}, endpointErr(raw, "missing SID")
		}
		hostPort, ep.Service = rest[:i], rest[i+1:]
		ep.SID = true
	}

	host, portStr, found := strings.Cut(hostPort, ":")
	if !found || host == "" {
		return Endpoint{}, endpointErr(raw, "want host:port")
	}
	if ep.Service == "" {
		return Endpoint{}, endpointErr(raw, "missing service id")
	}
	port, err := parsePort(portStr)
	if err != nil {
		return Endpoint{}, endpointErr(raw, "%v", err)
	}
	ep.Host, ep.Port = host, port
	return ep, nil
}

func parsePort(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// String renders the endpoint in its textual form. It carries no credentials.
func (e Endpoint) String() string {
	port := ""
	if e.Port > 0 {
		port = strconv.Itoa(e.Port)
	}
	return e.Scheme + ":" + e.Host + ":" + port + ":" + e.Service
}

func (e Endpoint) portOr(def int) int {
	if e.Port > 0 {
		return e.Port
	}
	return def
}

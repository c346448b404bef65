package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// PostgresConnectionString builds a keyword/value DSN for pgx.
func (c *Config) PostgresConnectionString() string {
	parts := []string{
		"host=" + quoteDSNValue(c.PostgresHost),
		"port=" + strconv.Itoa(c.PostgresPort),
		"user=" + quoteDSNValue(c.PostgresUser),
		"dbname=" + quoteDSNValue(c.PostgresDBName),
		"sslmode=" + quoteDSNValue(c.PostgresSSLMode),
	}
	if c.PostgresPassword != "" {
		parts = append(parts, "password="+quoteDSNValue(c.PostgresPassword))
	}
	return strings.Join(parts, " ")
}

// PostgresURL builds a postgres:// URL. golang-migrate takes URLs, not
// keyword/value DSNs.
func (c *Config) PostgresURL() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	if c.PostgresPassword != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	} else {
		u.User = url.User(c.PostgresUser)
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// parseDatabaseURL splits a DATABASE_URL-style setting into the
// individual Postgres fields. Managed platforms hand out a single URL;
// the field form stays canonical internally.
func (c *Config) parseDatabaseURL() error {
	raw := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("parsing DATABASE_URL: unsupported scheme %q", u.Scheme)
	}

	c.PostgresHost = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("parsing DATABASE_URL port: %w", err)
		}
		c.PostgresPort = port
	}
	if u.User != nil {
		c.PostgresUser = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.PostgresPassword = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		c.PostgresDBName = name
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.PostgresSSLMode = mode
	}
	return nil
}

// quoteDSNValue quotes a keyword/value DSN value when it contains
// characters that would break tokenization.
func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

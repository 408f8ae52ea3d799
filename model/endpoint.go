package model

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const DefaultDriver = "mysql"

type Credentials struct {
	User     string `json:"user" bson:"user"`
	Password string `json:"-" bson:"-"`
}

// StoreEndpoint identifies one database instance. It is passed by value and
// never modified after construction; use WithDatabase to derive a copy.
type StoreEndpoint struct {
	Driver      string      `json:"driver" bson:"driver"`
	Host        string      `json:"host" bson:"host"`
	Port        int         `json:"port" bson:"port"`
	Credentials Credentials `json:"credentials" bson:"credentials"`
	Database    string      `json:"database,omitempty" bson:"database,omitempty"`
}

func NewEndpoint(driver, host string, port int, user, password, database string) StoreEndpoint {
	if driver == "" {
		driver = DefaultDriver
	}
	return StoreEndpoint{
		Driver:      driver,
		Host:        host,
		Port:        port,
		Credentials: Credentials{User: user, Password: password},
		Database:    database,
	}
}

// ParseEndpoint parses "host:port" into an endpoint.
func ParseEndpoint(driver, addr, user, password string) (StoreEndpoint, error) {
	host, p, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return StoreEndpoint{}, fmt.Errorf("ParseEndpoint(%s) -> %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return StoreEndpoint{}, fmt.Errorf("ParseEndpoint(%s) -> invalid port %q", addr, p)
	}
	if host == "" {
		return StoreEndpoint{}, fmt.Errorf("ParseEndpoint(%s) -> empty host", addr)
	}
	return NewEndpoint(driver, host, port, user, password, ""), nil
}

func (self StoreEndpoint) WithDatabase(database string) StoreEndpoint {
	self.Database = database
	return self
}

func (self StoreEndpoint) Addr() string {
	return net.JoinHostPort(self.Host, strconv.Itoa(self.Port))
}

// String never includes the password.
func (self StoreEndpoint) String() string {
	if self.Database == "" {
		return self.Addr()
	}
	return self.Addr() + "/" + self.Database
}

package mysql

import (
	"net"
	"strconv"

	"github.com/Konsultn-Engineering/simpledb/connector"
	"github.com/go-sql-driver/mysql"
)

type Provider struct{}

func init() {
	connector.Register("mysql", &Provider{})
}

func (p *Provider) DriverName() string {
	return "mysql"
}

// DSN renders cfg in the go-sql-driver format. Times are parsed into the
// configured zone and the connection is made without TLS.
func (p *Provider) DSN(cfg connector.Config) (string, error) {
	cfg = cfg.WithDefaults()
	if err := connector.NewDSNBuilder("mysql").Host(cfg.Host, cfg.Port).Validate(); err != nil {
		return "", err
	}
	loc, err := cfg.Location()
	if err != nil {
		return "", err
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.TLSConfig = "false"
	mc.ParseTime = true
	mc.Loc = loc
	mc.Timeout = cfg.ConnectTimeout
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN(), nil
}

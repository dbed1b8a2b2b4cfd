// simpledb runs one SQL statement against a configured database and prints
// the result.
//
//	simpledb -c db.yaml "SELECT id, title FROM article WHERE id = ?" 1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Konsultn-Engineering/simpledb"
	"github.com/Konsultn-Engineering/simpledb/connector"
	_ "github.com/Konsultn-Engineering/simpledb/providers/mysql"
	_ "github.com/Konsultn-Engineering/simpledb/providers/sqlite"
	"github.com/spf13/pflag"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalln(err)
	}
}

func run(args []string, out io.Writer) error {
	var (
		configFile string
		dev        bool
		cfg        connector.Config
	)

	flags := pflag.NewFlagSet("simpledb", pflag.ContinueOnError)
	flags.StringVarP(&configFile, "config", "c", "", "YAML config file")
	flags.BoolVar(&dev, "dev", false, "print statements and parameters")
	flags.StringVar(&cfg.Driver, "driver", "", "provider: "+strings.Join(connector.Providers(), ", "))
	flags.StringVarP(&cfg.Host, "host", "H", "", "database host")
	flags.IntVarP(&cfg.Port, "port", "P", 0, "database port")
	flags.StringVarP(&cfg.Database, "database", "d", "", "database name or file")
	flags.StringVarP(&cfg.Username, "user", "u", "", "user name")
	flags.StringVarP(&cfg.Password, "password", "p", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New("no statement given")
	}

	if configFile != "" {
		fileCfg, err := connector.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = merge(fileCfg, cfg)
	}

	db, err := simpledb.New(cfg, simpledb.WithDevMode(dev), simpledb.WithLogger(log.New(out, "", 0)))
	if err != nil {
		return err
	}
	defer db.Close()

	query := flags.Arg(0)
	params := make([]any, 0, flags.NArg()-1)
	for _, p := range flags.Args()[1:] {
		params = append(params, p)
	}
	return execute(context.Background(), db, query, params, out)
}

// merge lets flags set on the command line override the config file.
func merge(base, override connector.Config) connector.Config {
	if override.Driver != "" {
		base.Driver = override.Driver
	}
	if override.Host != "" {
		base.Host = override.Host
	}
	if override.Port != 0 {
		base.Port = override.Port
	}
	if override.Database != "" {
		base.Database = override.Database
	}
	if override.Username != "" {
		base.Username = override.Username
	}
	if override.Password != "" {
		base.Password = override.Password
	}
	return base
}

func execute(ctx context.Context, db *simpledb.SimpleDb, query string, params []any, out io.Writer) error {
	b := db.SQL().Append(query, params...)
	if !returnsRows(query) {
		n, err := b.Update(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d row(s) affected\n", n)
		return nil
	}

	rows, err := b.SelectRows(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Fprintln(out, row.String())
	}
	fmt.Fprintf(out, "%d row(s)\n", len(rows))
	return nil
}

func returnsRows(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "SHOW", "PRAGMA", "EXPLAIN", "DESCRIBE", "VALUES":
		return true
	}
	return false
}

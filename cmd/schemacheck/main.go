// Command schemacheck loads an assembly schema, reports validation
// findings and optionally converts it to another format.
//
// Usage:
//
//	schemacheck [-strict] [-convert yaml|json] file...
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/schemafile"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(os.Args[1:], os.Stdout, log); err != nil {
		log.Error().Err(err).Msg("schemacheck failed")
		os.Exit(1)
	}
}

// errFindings is returned when a schema has blocking findings.
var errFindings = errors.New("schema has blocking findings")

func run(args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("schemacheck", flag.ContinueOnError)
	fs.SetOutput(out)
	strict := fs.Bool("strict", false, "treat warnings as errors")
	convert := fs.String("convert", "", "print the schema as yaml or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no schema files given")
	}

	failed := false
	for _, path := range fs.Args() {
		m, err := schemafile.Load(path)
		if err != nil {
			return err
		}

		findings, err := assembly.Check(m, *strict)
		for _, f := range findings {
			fmt.Fprintf(out, "%s: %s\n", path, f)
		}
		if err != nil {
			failed = true
			continue
		}
		log.Info().Str("file", path).Int("parts", m.Len()).Int("findings", len(findings)).Msg("schema ok")

		if *convert != "" {
			if err := emit(out, m, *convert); err != nil {
				return err
			}
		}
	}
	if failed {
		return errFindings
	}
	return nil
}

func emit(out io.Writer, m *assembly.Model, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml":
		data, err = schemafile.EncodeYAML(m)
	case "json":
		data, err = schemafile.EncodeJSON(m)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

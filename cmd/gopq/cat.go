package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gopq/gopq"
	"github.com/gopq/gopq/internal/ioutil"
)

// CatCmd streams a Parquet file's records to stdout as newline-delimited
// JSON, optionally projecting down to a subset of columns.
type CatCmd struct {
	File    string `arg:"" help:"Path to the Parquet file." type:"existingfile"`
	Columns string `help:"Comma-separated list of dotted column paths to project; default is every column."`
}

func (c *CatCmd) Run() error {
	f, err := ioutil.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := gopq.OpenReader(f)
	if err != nil {
		return err
	}

	var readerOpts []gopq.ReaderOption
	if c.Columns != "" {
		readerOpts = append(readerOpts, gopq.Project(strings.Split(c.Columns, ",")...))
	}
	log.Debug().Str("file", c.File).Str("columns", c.Columns).Msg("reading records")

	records, err := r.ReadAll(gopq.NewReaderConfig(readerOpts...))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

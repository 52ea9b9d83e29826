package main

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/gopq/gopq"
	"github.com/gopq/gopq/internal/ioutil"
)

// WriteCmd builds a Parquet file from a JSON schema declaration (a
// message name and a []gopq.FieldDecl) and a JSON array of records.
type WriteCmd struct {
	Schema  string `arg:"" help:"Path to a JSON schema declaration file." type:"existingfile"`
	Records string `arg:"" help:"Path to a JSON array of records." type:"existingfile"`
	Out     string `arg:"" help:"Path to write the Parquet file to."`
}

type schemaFile struct {
	Name   string          `json:"name"`
	Fields []gopq.FieldDecl `json:"fields"`
}

func (c *WriteCmd) Run() error {
	schemaBytes, err := os.ReadFile(c.Schema)
	if err != nil {
		return err
	}
	var sf schemaFile
	if err := json.Unmarshal(schemaBytes, &sf); err != nil {
		return err
	}
	schema, err := gopq.BuildSchema(sf.Name, sf.Fields)
	if err != nil {
		return err
	}

	recordBytes, err := os.ReadFile(c.Records)
	if err != nil {
		return err
	}
	var records []map[string]any
	if err := json.Unmarshal(recordBytes, &records); err != nil {
		return err
	}

	out, err := ioutil.Create(c.Out)
	if err != nil {
		return err
	}

	w, err := gopq.NewWriter(out, schema, gopq.NewWriterConfig())
	if err != nil {
		out.Close()
		return err
	}
	for _, rec := range records {
		if err := w.WriteRow(rec); err != nil {
			w.Abort(err)
			return err
		}
	}
	log.Debug().Int("records", len(records)).Str("out", c.Out).Msg("wrote parquet file")
	return w.Close()
}

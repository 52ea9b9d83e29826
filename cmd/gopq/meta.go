package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/gopq/gopq"
	"github.com/gopq/gopq/internal/ioutil"
)

// MetaCmd dumps a Parquet file's footer: row count, schema leaves, and
// key/value metadata. Per-row-group details are not printed.
type MetaCmd struct {
	File string `arg:"" help:"Path to the Parquet file." type:"existingfile"`
}

func (c *MetaCmd) Run() error {
	log.Debug().Str("file", c.File).Msg("opening file")
	f, err := ioutil.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := gopq.OpenReader(f)
	if err != nil {
		return err
	}

	fmt.Printf("rows: %d\n", r.NumRows())
	fmt.Printf("schema: %s\n\n", r.Schema().Name)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"path", "repetition", "type"})
	for _, leaf := range r.Schema().Leaves {
		table.Append([]string{leaf.PathString(), leaf.Repetition.String(), leaf.Primitive.String()})
	}
	table.Render()

	if kv := r.KeyValueMetadata(); len(kv) > 0 {
		fmt.Println()
		kvTable := tablewriter.NewWriter(os.Stdout)
		kvTable.Header([]string{"key", "value"})
		for _, e := range kv {
			kvTable.Append([]string{e.Key, e.Value})
		}
		kvTable.Render()
	}
	return nil
}

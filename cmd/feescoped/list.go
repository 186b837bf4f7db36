package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/b0ase/path402/apps/feescope/internal/config"
	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/format"
)

// listFeeSets prints the newest stored fee sets as a table.
func listFeeSets(cfg *config.Config, limit int, out io.Writer) error {
	if err := db.Open(cfg.DBPath()); err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	list, err := db.ListBlockFees(limit)
	if err != nil {
		return fmt.Errorf("list fee sets: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No fee sets stored.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Height", "Hash", "Size", "Records", "Mined By"})
	for _, bf := range list {
		hash := bf.Hash
		if len(hash) > 16 {
			hash = hash[:16] + "..."
		}
		t.AppendRow(table.Row{bf.Height, hash, format.BigNum(float64(bf.Size)) + "B", bf.RecordCount, bf.MinedBy})
	}
	t.Render()
	return nil
}

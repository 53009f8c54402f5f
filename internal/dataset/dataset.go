// Package dataset loads, saves and synthesizes the input files of a run.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cleared-dev/dropsim/internal/accounts"
	"github.com/cleared-dev/dropsim/internal/config"
	"github.com/cleared-dev/dropsim/internal/model"
)

// Dataset is everything a run reads from the data directory.
type Dataset struct {
	Clients   []model.Client
	Devices   []model.Device
	Merchants []model.Merchant
	Accounts  *accounts.Table
	External  []int64
}

// Paths resolves the data file paths of a DataConfig.
type Paths struct {
	Accounts, External, Clients, Devices, Merchants string
}

// PathsFor joins the configured file names onto the data directory.
func PathsFor(dc config.DataConfig) Paths {
	join := func(name string) string { return filepath.Join(dc.Dir, name) }
	return Paths{
		Accounts:  join(dc.Accounts),
		External:  join(dc.ExternalAccounts),
		Clients:   join(dc.Clients),
		Devices:   join(dc.Devices),
		Merchants: join(dc.Merchants),
	}
}

// Load reads every input file.
func Load(dc config.DataConfig) (*Dataset, error) {
	p := PathsFor(dc)
	ds := &Dataset{}

	table, err := accounts.Load(p.Accounts)
	if err != nil {
		return nil, err
	}
	ds.Accounts = table
	if ds.External, err = accounts.LoadExternal(p.External); err != nil {
		return nil, err
	}

	readers := []struct {
		path string
		read func(io.Reader) error
	}{
		{p.Clients, func(r io.Reader) (err error) { ds.Clients, err = ReadClients(r); return err }},
		{p.Devices, func(r io.Reader) (err error) { ds.Devices, err = ReadDevices(r); return err }},
		{p.Merchants, func(r io.Reader) (err error) { ds.Merchants, err = ReadMerchants(r); return err }},
	}
	for _, rd := range readers {
		if err := readFile(rd.path, rd.read); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Save writes every input file, creating the data directory.
func Save(dc config.DataConfig, ds *Dataset) error {
	if err := os.MkdirAll(dc.Dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	p := PathsFor(dc)

	if err := ds.Accounts.Save(p.Accounts); err != nil {
		return err
	}
	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{p.External, func(w io.Writer) error { return accounts.WriteExternal(w, ds.External) }},
		{p.Clients, func(w io.Writer) error { return WriteClients(w, ds.Clients) }},
		{p.Devices, func(w io.Writer) error { return WriteDevices(w, ds.Devices) }},
		{p.Merchants, func(w io.Writer) error { return WriteMerchants(w, ds.Merchants) }},
	}
	for _, wr := range writers {
		if err := writeFile(wr.path, wr.write); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

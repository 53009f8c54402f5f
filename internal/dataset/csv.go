package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/dropsim/internal/model"
)

// Headers of the input files.
var (
	ClientsHeader   = []string{"client_id", "lat", "lon", "city", "home_ip"}
	DevicesHeader   = []string{"client_id", "device_id"}
	MerchantsHeader = []string{"merchant_id", "online"}
)

func readRows(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func writeRows(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadClients reads clients.csv.
func ReadClients(r io.Reader) ([]model.Client, error) {
	rows, err := readRows(r, ClientsHeader)
	if err != nil {
		return nil, fmt.Errorf("reading clients CSV: %w", err)
	}
	clients := make([]model.Client, 0, len(rows))
	for i, rec := range rows {
		c, err := UnmarshalClient(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

// WriteClients writes clients.csv.
func WriteClients(w io.Writer, clients []model.Client) error {
	return writeRows(w, ClientsHeader, len(clients), func(i int) []string {
		return MarshalClient(clients[i])
	})
}

// MarshalClient converts a Client to a CSV row.
func MarshalClient(c model.Client) []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		strconv.FormatFloat(c.Lat, 'f', 6, 64),
		strconv.FormatFloat(c.Lon, 'f', 6, 64),
		c.City,
		c.HomeIP,
	}
}

// UnmarshalClient converts a CSV row to a Client.
func UnmarshalClient(rec []string) (model.Client, error) {
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return model.Client{}, fmt.Errorf("parsing client_id %q: %w", rec[0], err)
	}
	lat, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return model.Client{}, fmt.Errorf("parsing lat %q: %w", rec[1], err)
	}
	lon, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return model.Client{}, fmt.Errorf("parsing lon %q: %w", rec[2], err)
	}
	return model.Client{ID: id, Lat: lat, Lon: lon, City: rec[3], HomeIP: rec[4]}, nil
}

// ReadDevices reads devices.csv.
func ReadDevices(r io.Reader) ([]model.Device, error) {
	rows, err := readRows(r, DevicesHeader)
	if err != nil {
		return nil, fmt.Errorf("reading devices CSV: %w", err)
	}
	devices := make([]model.Device, 0, len(rows))
	for i, rec := range rows {
		clientID, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing client_id %q: %w", i+2, rec[0], err)
		}
		devices = append(devices, model.Device{ClientID: clientID, ID: rec[1]})
	}
	return devices, nil
}

// WriteDevices writes devices.csv.
func WriteDevices(w io.Writer, devices []model.Device) error {
	return writeRows(w, DevicesHeader, len(devices), func(i int) []string {
		return []string{strconv.FormatInt(devices[i].ClientID, 10), devices[i].ID}
	})
}

// ReadMerchants reads merchants.csv.
func ReadMerchants(r io.Reader) ([]model.Merchant, error) {
	rows, err := readRows(r, MerchantsHeader)
	if err != nil {
		return nil, fmt.Errorf("reading merchants CSV: %w", err)
	}
	merchants := make([]model.Merchant, 0, len(rows))
	for i, rec := range rows {
		online, err := strconv.ParseBool(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing online %q: %w", i+2, rec[1], err)
		}
		merchants = append(merchants, model.Merchant{ID: rec[0], Online: online})
	}
	return merchants, nil
}

// WriteMerchants writes merchants.csv.
func WriteMerchants(w io.Writer, merchants []model.Merchant) error {
	return writeRows(w, MerchantsHeader, len(merchants), func(i int) []string {
		return []string{merchants[i].ID, strconv.FormatBool(merchants[i].Online)}
	})
}

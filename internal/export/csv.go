// Package export writes generated transactions and the relabeled account
// table as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/dropsim/internal/model"
)

// Header is the CSV header of a transactions file.
const Header = "transaction_id,client_id,timestamp,unix_time,amount,type,channel,category,online,merchant_id,trans_city,trans_lat,trans_lon,trans_ip,device_id,account,is_fraud,is_suspicious,status,rule"

// TimeFormat is the layout of the timestamp column.
const TimeFormat = "2006-01-02 15:04:05"

const (
	numFields     = 20
	colID         = 0
	colClientID   = 1
	colTimestamp  = 2
	colUnix       = 3
	colAmount     = 4
	colType       = 5
	colChannel    = 6
	colCategory   = 7
	colOnline     = 8
	colMerchant   = 9
	colCity       = 10
	colLat        = 11
	colLon        = 12
	colIP         = 13
	colDevice     = 14
	colAccount    = 15
	colFraud      = 16
	colSuspicious = 17
	colStatus     = 18
	colRule       = 19
)

// ReadTransactions reads all transactions from a CSV reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes transactions to w, header included.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row. Missing merchant,
// location and counterparty fields are written as "not applicable".
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID
	row[colClientID] = strconv.FormatInt(t.ClientID, 10)
	row[colTimestamp] = t.Time.UTC().Format(TimeFormat)
	row[colUnix] = strconv.FormatInt(t.Unix, 10)
	row[colAmount] = t.Amount.StringFixed(2)
	row[colType] = string(t.Type)
	row[colChannel] = string(t.Channel)
	row[colCategory] = t.Category
	row[colOnline] = strconv.FormatBool(t.Online)
	row[colMerchant] = orNotApplicable(t.MerchantID)
	row[colCity] = orNotApplicable(t.City)
	if t.HasGeo {
		row[colLat] = strconv.FormatFloat(t.Lat, 'f', -1, 64)
		row[colLon] = strconv.FormatFloat(t.Lon, 'f', -1, 64)
	} else {
		row[colLat] = model.NotApplicable
		row[colLon] = model.NotApplicable
	}
	row[colIP] = orNotApplicable(t.IP)
	row[colDevice] = orNotApplicable(t.DeviceID)
	if t.Account != 0 {
		row[colAccount] = strconv.FormatInt(t.Account, 10)
	} else {
		row[colAccount] = model.NotApplicable
	}
	row[colFraud] = strconv.FormatBool(t.IsFraud)
	row[colSuspicious] = strconv.FormatBool(t.IsSuspicious)
	row[colStatus] = string(t.Status)
	row[colRule] = t.Rule
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	clientID, err := strconv.ParseInt(record[colClientID], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing client_id %q: %w", record[colClientID], err)
	}
	ts, err := time.Parse(TimeFormat, record[colTimestamp])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	unix, err := strconv.ParseInt(record[colUnix], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing unix_time %q: %w", record[colUnix], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	online, err := strconv.ParseBool(record[colOnline])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing online %q: %w", record[colOnline], err)
	}

	txn := model.Transaction{
		ID:         record[colID],
		ClientID:   clientID,
		Time:       ts,
		Unix:       unix,
		Amount:     amount,
		Type:       model.TxnType(record[colType]),
		Channel:    model.Channel(record[colChannel]),
		Category:   record[colCategory],
		Online:     online,
		MerchantID: fromNotApplicable(record[colMerchant]),
		City:       record[colCity],
		IP:         record[colIP],
		DeviceID:   fromNotApplicable(record[colDevice]),
		Status:     model.Status(record[colStatus]),
		Rule:       record[colRule],
	}

	if record[colLat] != model.NotApplicable {
		if txn.Lat, err = strconv.ParseFloat(record[colLat], 64); err != nil {
			return model.Transaction{}, fmt.Errorf("parsing trans_lat %q: %w", record[colLat], err)
		}
		if txn.Lon, err = strconv.ParseFloat(record[colLon], 64); err != nil {
			return model.Transaction{}, fmt.Errorf("parsing trans_lon %q: %w", record[colLon], err)
		}
		txn.HasGeo = true
	}
	if record[colAccount] != model.NotApplicable {
		if txn.Account, err = strconv.ParseInt(record[colAccount], 10, 64); err != nil {
			return model.Transaction{}, fmt.Errorf("parsing account %q: %w", record[colAccount], err)
		}
	}
	if txn.IsFraud, err = strconv.ParseBool(record[colFraud]); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing is_fraud %q: %w", record[colFraud], err)
	}
	if txn.IsSuspicious, err = strconv.ParseBool(record[colSuspicious]); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing is_suspicious %q: %w", record[colSuspicious], err)
	}
	return txn, nil
}

func orNotApplicable(s string) string {
	if s == "" {
		return model.NotApplicable
	}
	return s
}

func fromNotApplicable(s string) string {
	if s == model.NotApplicable {
		return ""
	}
	return s
}

// Package report turns the driver's per-tick telemetry into the CSV
// log spec.md §6 describes: one row per user per pair per tick.
//
// Grounded on spec.md §6's column list. encoding/csv is used directly
// rather than a third-party writer: none of the retrieved example
// repos bring one, and the format here is a flat, header-then-rows
// table with no need for struct-tag marshaling.
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/engine"
)

// assetColumns is the fixed set of asset types buildTickRecord always
// emits breakdowns for, in order.
var assetColumns = []currency.AssetType{
	currency.Usdt,
	currency.Btc,
	currency.BtcUsdtFuture,
	currency.BtcUsdCmFuture,
}

// Logger writes TickRecords as CSV rows to the wrapped writer,
// flushing after every row so a run that is killed mid-way leaves a
// readable partial log.
type Logger struct {
	w             *csv.Writer
	headerWritten bool
}

// NewLogger wraps w in a CSV writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: csv.NewWriter(w)}
}

func (l *Logger) header() []string {
	cols := []string{
		"time", "pair", "close_price",
		"user_id", "user_name",
		"target_position_ratio", "actual_position_ratio",
		"unfulfilled_buy_count", "unfulfilled_buy_volume",
		"unfulfilled_sell_count", "unfulfilled_sell_volume",
		"executed_buy_count", "executed_buy_volume",
		"executed_sell_count", "executed_sell_volume",
		"total_usdt", "available_usdt", "locked_usdt", "fee_usdt",
	}
	for _, at := range assetColumns {
		name := at.String()
		cols = append(cols,
			name+"_total", name+"_available", name+"_locked",
			name+"_total_usdt", name+"_available_usdt", name+"_locked_usdt",
		)
	}
	return cols
}

// Record implements engine.Recorder, writing rec as one CSV row.
func (l *Logger) Record(rec engine.TickRecord) {
	if !l.headerWritten {
		_ = l.w.Write(l.header())
		l.headerWritten = true
	}

	row := []string{
		rec.Time.Format(time.RFC3339),
		rec.Pair.String(),
		rec.ClosePrice.String(),
		rec.UserID,
		rec.UserName,
		rec.TargetPositionRatio.String(),
		rec.ActualPositionRatio.String(),
		strconv.Itoa(rec.UnfulfilledBuyCount), rec.UnfulfilledBuyVolume.String(),
		strconv.Itoa(rec.UnfulfilledSellCount), rec.UnfulfilledSellVolume.String(),
		strconv.Itoa(rec.ExecutedBuyCount), rec.ExecutedBuyVolume.String(),
		strconv.Itoa(rec.ExecutedSellCount), rec.ExecutedSellVolume.String(),
		rec.TotalUSDT.String(), rec.AvailableUSDT.String(), rec.LockedUSDT.String(), rec.FeeUSDT.String(),
	}

	byType := make(map[currency.AssetType]engine.AssetBreakdown, len(rec.Assets))
	for _, ab := range rec.Assets {
		byType[ab.Type] = ab
	}
	for _, at := range assetColumns {
		ab := byType[at]
		row = append(row,
			ab.Total.String(), ab.Available.String(), ab.Locked.String(),
			ab.TotalUSDT.String(), ab.AvailableUSDT.String(), ab.LockedUSDT.String(),
		)
	}

	_ = l.w.Write(row)
	l.w.Flush()
}

// Close flushes any buffered rows and returns the writer's first error, if any.
func (l *Logger) Close() error {
	l.w.Flush()
	return l.w.Error()
}

package jobs

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// asynqLogger adapta pkg/logger a asynq.Logger.
type asynqLogger struct {
	l *logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

type zerologArray []inventory.AllocationEvent

func (arr zerologArray) MarshalZerologArray(a *zerolog.Array) {
	for _, line := range arr {
		a.Dict(zerolog.Dict().
			Str("lot_id", line.LotID).
			Str("quantity", line.Quantity).
			Str("invoice_reference", line.InvoiceReference))
	}
}

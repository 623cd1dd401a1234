// seed_lots aplica el esquema y carga lotes recibidos desde un CSV (separado por ';').
// Por cada fila crea o actualiza producto y bodega, inserta el lote e incrementa el stock
// del ledger en la misma transacción.
//
// Uso: go run ./cmd/seed_lots [-latin1] [-migrate=false] lotes.csv
//
// Columnas: lot_id;product_id;sku;product_name;warehouse_id;warehouse_name;quantity;invoice_reference;received_at[;threshold]
// received_at en RFC3339 o YYYY-MM-DD.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	lotrules "github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

type lotRow struct {
	line      int
	lot       entity.Lot
	product   entity.Product
	warehouse entity.Warehouse
	threshold *decimal.Decimal
}

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1 (exportes de Excel)")
	migrate := flag.Bool("migrate", true, "aplicar migraciones antes de importar")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_lots [-latin1] [-migrate=false] lotes.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	var r io.Reader = f
	if *latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	rows, err := parseLots(r)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if *migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
	}

	err = postgres.NewTxRunner(pool).InTx(ctx, func(tx pgx.Tx) error {
		products := postgres.NewProductRepository(tx)
		warehouses := postgres.NewWarehouseRepository(tx)
		lots := postgres.NewLotRepository(tx)
		ledger := inventory.NewStockLedger(postgres.NewStockRepository(tx))

		for _, row := range rows {
			if err := products.Upsert(ctx, &row.product); err != nil {
				return fmt.Errorf("línea %d: %w", row.line, err)
			}
			if err := warehouses.Upsert(ctx, &row.warehouse); err != nil {
				return fmt.Errorf("línea %d: %w", row.line, err)
			}
			if row.threshold != nil {
				if err := products.SetThreshold(ctx, entity.StockThreshold{
					ProductID:   row.product.ID,
					WarehouseID: row.warehouse.ID,
					Threshold:   *row.threshold,
				}); err != nil {
					return fmt.Errorf("línea %d: %w", row.line, err)
				}
			}
			if err := lots.Insert(ctx, &row.lot); err != nil {
				return fmt.Errorf("línea %d: %w", row.line, err)
			}
			if err := ledger.Increment(ctx, row.lot.ProductID, row.lot.WarehouseID, row.lot.ReceivedQuantity); err != nil {
				return fmt.Errorf("línea %d: %w", row.line, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("importar lotes")
	}
	log.Info().Int("lots", len(rows)).Msg("lotes importados")
}

// parseLots lee el CSV completo; cualquier fila inválida aborta la importación.
// Una primera fila cuya primera columna sea "lot_id" se toma como encabezado.
func parseLots(r io.Reader) ([]lotRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []lotRow
	seen := make(map[string]int)
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "lot_id") {
			continue
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if prev, ok := seen[row.lot.ID]; ok {
			return nil, fmt.Errorf("línea %d: lote %s repetido (línea %d)", line, row.lot.ID, prev)
		}
		seen[row.lot.ID] = line
		row.line = line
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, errors.New("el archivo no tiene lotes")
	}
	return out, nil
}

func parseRow(rec []string) (lotRow, error) {
	if len(rec) < 9 {
		return lotRow{}, fmt.Errorf("se esperaban al menos 9 columnas, hay %d", len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	for i, name := range []string{"lot_id", "product_id", "sku", "product_name", "warehouse_id"} {
		if rec[i] == "" {
			return lotRow{}, fmt.Errorf("%s vacío", name)
		}
	}

	qty, err := decimal.NewFromString(strings.ReplaceAll(rec[6], ",", "."))
	if err != nil {
		return lotRow{}, fmt.Errorf("quantity %q: %w", rec[6], err)
	}
	if !qty.IsPositive() {
		return lotRow{}, fmt.Errorf("quantity debe ser positiva: %s", qty.String())
	}
	if !lotrules.HasValidScale(qty) {
		return lotRow{}, fmt.Errorf("quantity %s admite como máximo %d decimales", qty.String(), lotrules.QuantityScale)
	}
	receivedAt, err := parseDate(rec[8])
	if err != nil {
		return lotRow{}, err
	}

	row := lotRow{
		lot: entity.Lot{
			ID:               rec[0],
			ProductID:        rec[1],
			WarehouseID:      rec[4],
			ReceivedQuantity: qty,
			InvoiceReference: rec[7],
			CreatedAt:        receivedAt,
		},
		product:   entity.Product{ID: rec[1], SKU: rec[2], Name: rec[3]},
		warehouse: entity.Warehouse{ID: rec[4], Name: rec[5]},
	}
	if row.warehouse.Name == "" {
		row.warehouse.Name = rec[4]
	}
	if len(rec) > 9 && rec[9] != "" {
		threshold, err := decimal.NewFromString(strings.ReplaceAll(rec[9], ",", "."))
		if err != nil {
			return lotRow{}, fmt.Errorf("threshold %q: %w", rec[9], err)
		}
		if threshold.IsNegative() {
			return lotRow{}, fmt.Errorf("threshold no puede ser negativo")
		}
		if !lotrules.HasValidScale(threshold) {
			return lotRow{}, fmt.Errorf("threshold %s admite como máximo %d decimales", threshold.String(), lotrules.QuantityScale)
		}
		row.threshold = &threshold
	}
	return row, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("received_at %q: se espera RFC3339 o YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

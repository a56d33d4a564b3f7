// Package sample generates realistic rejections and correction events
// workbooks for demos and end-to-end tests.
package sample

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"invoice-dashboard/internal/dates"
	"invoice-dashboard/internal/loader"
)

// Default file names written by Generator.Write
const (
	RejectionsFile  = "rejeicoes_sample.xlsx"
	CorrectionsFile = "eventos_sample.xlsx"
)

const reasonColumn = "Motivo para estorno/não utilização"

// RejectionHeaders are the column labels of the rejections detail sheet.
// The reason column repeats, as in the real export.
var RejectionHeaders = []string{
	"Modificado por", "Data de modificação", "Código status", "Turno", "Tipo Semana",
	reasonColumn, reasonColumn,
}

// CorrectionHeaders are the column labels of the correction events sheet
var CorrectionHeaders = []string{"Data", "Planta", "CNPJ", "Turno", "Tipo Semana", "Texto/ Motivo"}

// SefazErrors is the code list written to the SEFAZ sheet
var SefazErrors = [][]string{
	{"204", "Rejeição: Duplicidade de NF-e"},
	{"539", "Rejeição: Duplicidade de NF-e com diferença na Chave de Acesso"},
	{"225", "Rejeição: Falha no Schema XML da NFe"},
	{"302", "Rejeição: Irregularidade fiscal do destinatário"},
	{"778", "Rejeição: Informado NCM inexistente"},
}

var (
	actors = []string{
		"NFERPABRAZIL", "NFERPABRAZIL", "S_RF_DFE", "RPA_JOB01",
		"KATIANE.SILVA", "CAROLAINE.SOUZA", "jdoe", "mferreira",
	}
	rejectionMessages = []string{
		"Tipo de emissão alterado para contingência",
		"O valor '0,00' do campo 'vBC' é inválido",
		"Rejeição: Data de emissão muito atrasada. Verifique",
		"O status da NF-e 123 foi alterado para erro",
		"Timeout na comunicação com a SEFAZ",
		"Line number 12, column number 4: unexpected element",
		"<erro>Falha no retorno</erro>",
		"Pedido cancelado pelo cliente",
	}
	plants = []string{"P1 Jundiaí", "P2 Cabo", "P3 Manaus", "P4 Itajaí"}
	// the last id fails the check digits
	taxIDs = []string{
		"11444777000161", "60746948000112", "33000167000101",
		"07526557000100", "02558157000162", "45543915000181",
		"12345678000100",
	}
	correctionMessages = []string{
		"Correção: peso bruto 1200 kg",
		"Correção: quantidade de pallets",
		"Correção da nota fiscal de remessa",
		"Alterar placa do veículo",
		"Transportadora informada errada",
		"Local de entrega divergente",
		"Ajuste de endereço do destinatário",
	}
)

// Generator produces deterministic sample data for a given seed
type Generator struct {
	Rows   int
	End    time.Time
	Months int
	Seed   int64
	Sheets loader.SheetNames

	rng *rand.Rand
}

// NewGenerator creates a generator covering the months ending with end
func NewGenerator(rows, months int, end time.Time, seed int64) *Generator {
	if rows < 0 {
		rows = 0
	}
	if months < 1 {
		months = 1
	}
	return &Generator{
		Rows:   rows,
		End:    end,
		Months: months,
		Seed:   seed,
		Sheets: loader.DefaultSheetNames(),
	}
}

func (g *Generator) reset() {
	g.rng = rand.New(rand.NewSource(g.Seed))
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// randomTime returns a time between the first day of the earliest month and End
func (g *Generator) randomTime() time.Time {
	start := dates.MonthStart(g.End).AddDate(0, -(g.Months - 1), 0)
	span := g.End.Sub(start)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(g.rng.Int63n(int64(span))))
}

// ShiftOf maps an hour to its shift code
func ShiftOf(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 14:
		return "T1"
	case h >= 14 && h < 22:
		return "T2"
	default:
		return "T3"
	}
}

// DayTypeOf returns the Portuguese day-type code of t
func DayTypeOf(t time.Time) string {
	switch t.Weekday() {
	case time.Saturday:
		return "Sábado"
	case time.Sunday:
		return "Domingo"
	default:
		return "Semana"
	}
}

// RejectionRows returns the rejections detail sheet, header first
func (g *Generator) RejectionRows() [][]interface{} {
	g.reset()
	rows := make([][]interface{}, 0, g.Rows+1)
	rows = append(rows, toCells(RejectionHeaders))

	for i := 0; i < g.Rows; i++ {
		at := g.randomTime()

		var code string
		if g.rng.Float64() < 0.5 {
			code = SefazErrors[g.rng.Intn(len(SefazErrors))][0]
		}

		first, second := g.pick(rejectionMessages), ""
		if g.rng.Float64() < 0.3 {
			first, second = "N/A", first
		}

		rows = append(rows, []interface{}{
			g.pick(actors),
			at.Format("2006-01-02 15:04"),
			code,
			ShiftOf(at),
			DayTypeOf(at),
			first,
			second,
		})
	}
	return rows
}

// CorrectionRows returns the correction events sheet, header first
func (g *Generator) CorrectionRows() [][]interface{} {
	g.reset()
	rows := make([][]interface{}, 0, g.Rows+1)
	rows = append(rows, toCells(CorrectionHeaders))

	for i := 0; i < g.Rows; i++ {
		at := g.randomTime()

		shift := ShiftOf(at)
		if g.rng.Float64() < 0.2 {
			shift = fmt.Sprintf("t%s", shift[1:])
		}

		rows = append(rows, []interface{}{
			dates.BucketKey(at),
			g.pick(plants),
			g.pick(taxIDs),
			shift,
			DayTypeOf(at),
			g.pick(correctionMessages),
		})
	}
	return rows
}

// SefazRows returns the headerless code list
func (g *Generator) SefazRows() [][]interface{} {
	rows := make([][]interface{}, len(SefazErrors))
	for i, pair := range SefazErrors {
		rows[i] = toCells(pair)
	}
	return rows
}

// Write saves both workbooks into dir and returns their paths
func (g *Generator) Write(dir string) (string, string, error) {
	rejections := filepath.Join(dir, RejectionsFile)
	err := writeWorkbook(rejections,
		sheet{g.Sheets.SefazErrors, g.SefazRows()},
		sheet{g.Sheets.Rejections, g.RejectionRows()},
	)
	if err != nil {
		return "", "", err
	}

	corrections := filepath.Join(dir, CorrectionsFile)
	if err := writeWorkbook(corrections, sheet{g.Sheets.Corrections, g.CorrectionRows()}); err != nil {
		return "", "", err
	}
	return rejections, corrections, nil
}

type sheet struct {
	name string
	rows [][]interface{}
}

func writeWorkbook(path string, sheets ...sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}

		for r := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &s.rows[r]); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", r+1, s.name, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

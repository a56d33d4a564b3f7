package classifier

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestStandardize(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"empty", "", NotSpecified},
		{"whitespace", "   \t", NotSpecified},
		{
			"emission type",
			"Tipo de emissãoalterado para contingência",
			"Erro: Alteração do tipo de emissão da NF-e",
		},
		{
			"invalid field",
			"O valor 'ABC' do campo 'cMun' é inválido",
			"Erro: Valor inválido no campo 'cMun'",
		},
		{
			"rejection truncated at period",
			"Rejeição: Duplicidade de NF-e. Chave 123",
			"Rejeição SEFAZ: Duplicidade de NF-e",
		},
		{
			"rejection without period",
			"REJEIÇÃO:   CNPJ do emitente inválido",
			"Rejeição SEFAZ: CNPJ do emitente inválido",
		},
		{
			"status changed",
			"O status da NF-e 3524 foi alterado para Erro",
			"Status da NF-e alterado para Erro na SEFAZ",
		},
		{"markup", "<xml>falha</xml>", "Erro de formatação (HTML/XML na mensagem)"},
		{"line number", "Error at Line Number 12", "Erro de estrutura do arquivo (Linha/Coluna)"},
		{"sefaz mention", "Timeout ao contactar a Sefaz", "Erro de comunicação com a SEFAZ"},
		{
			"rejection beats sefaz mention",
			"Rejeição: Falha no schema da SEFAZ",
			"Rejeição SEFAZ: Falha no schema da SEFAZ",
		},
		{
			"markup beats sefaz mention",
			"SEFAZ returned <html>",
			"Erro de formatação (HTML/XML na mensagem)",
		},
		{"short unmatched", "Cliente desistiu", "Cliente desistiu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Standardize(tt.msg); got != tt.want {
				t.Errorf("Standardize(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestStandardizeTruncatesLongUnmatched(t *testing.T) {
	got := Standardize(strings.Repeat("x", 150))

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if body := strings.TrimSuffix(got, "..."); len(body) != 100 {
		t.Errorf("expected 100 characters before the ellipsis, got %d", len(body))
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	got := Truncate(strings.Repeat("ç", 101), 100)
	if utf8.RuneCountInString(got) != 103 {
		t.Errorf("expected 100 runes plus ellipsis, got %d runes", utf8.RuneCountInString(got))
	}
	if Truncate("abc", 100) != "abc" {
		t.Error("short strings must be returned unchanged")
	}
}

func TestClassifyCorrectionReason(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Correção: peso bruto 1200 kg", "Correção de Peso"},
		{"Peso incorreto", "Peso incorreto"},
		{"Quantidade de palets", "Correção de Quantidade de Pallets"},
		{"PALLET divergente", "Correção de Quantidade de Pallets"},
		{"correção: NFe sem chave", "Correção de Documentação Fiscal"},
		{"Nota Fiscal errada", "Correção de Documentação Fiscal"},
		{"Placa do veículo", "Correção de Transporte"},
		{"Transportadora errada", "Correção de Transporte"},
		{"Local de entrega alterado", "Correção de Local/Container"},
		{"Container trocado", "Correção de Local/Container"},
		{"peso 30 pallets", "Correção de Peso"},
		{"  Correção:   Outro motivo  ", "Outro motivo"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := ClassifyCorrectionReason(tt.msg); got != tt.want {
				t.Errorf("ClassifyCorrectionReason(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestStripRejectionLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rejeição: Duplicidade de NF-e", "Duplicidade de NF-e"},
		{"rejeicao:Duplicidade", "Duplicidade"},
		{"Duplicidade de NF-e", "Duplicidade de NF-e"},
	}

	for _, tt := range tests {
		if got := StripRejectionLabel(tt.in); got != tt.want {
			t.Errorf("StripRejectionLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Package classifier maps free-text rejection and correction reasons onto a
// small set of standard labels using ordered pattern rules.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// NotSpecified is returned for blank reasons
const NotSpecified = "Motivo não especificado"

// maxReasonLength bounds unmatched reasons before the ellipsis is added
const maxReasonLength = 100

// Rule pairs a pattern with the label it produces. Rules are evaluated in
// slice order and the first match wins.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Label   func(groups []string) string
}

func literal(label string) func([]string) string {
	return func([]string) string { return label }
}

// StandardRules are the rejection message rules in priority order
var StandardRules = []Rule{
	{
		Name:    "emission-type-changed",
		Pattern: regexp.MustCompile(`(?i)tipo de emiss[aã]o\s*alterado`),
		Label:   literal("Erro: Alteração do tipo de emissão da NF-e"),
	},
	{
		Name:    "invalid-field-value",
		Pattern: regexp.MustCompile(`(?i)o valor '.*?' do campo '(.*?)' é inválido`),
		Label: func(g []string) string {
			return "Erro: Valor inválido no campo '" + g[1] + "'"
		},
	},
	{
		Name:    "sefaz-rejection",
		Pattern: regexp.MustCompile(`(?i)rejeição:\s*(.*)`),
		Label: func(g []string) string {
			text, _, _ := strings.Cut(g[1], ".")
			return "Rejeição SEFAZ: " + text
		},
	},
	{
		Name:    "status-changed-to-error",
		Pattern: regexp.MustCompile(`(?i)o status da nf-e.*?foi alterado para erro`),
		Label:   literal("Status da NF-e alterado para Erro na SEFAZ"),
	},
	{
		Name:    "markup",
		Pattern: regexp.MustCompile(`<|>`),
		Label:   literal("Erro de formatação (HTML/XML na mensagem)"),
	},
	{
		Name:    "file-structure",
		Pattern: regexp.MustCompile(`(?i)line number|column number`),
		Label:   literal("Erro de estrutura do arquivo (Linha/Coluna)"),
	},
	{
		Name:    "sefaz-communication",
		Pattern: regexp.MustCompile(`(?i)sefaz`),
		Label:   literal("Erro de comunicação com a SEFAZ"),
	},
}

// Standardize maps a rejection message to its standard label. Messages no
// rule recognises are truncated to 100 characters.
func Standardize(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return NotSpecified
	}

	if label, ok := Apply(StandardRules, msg); ok {
		return label
	}

	return Truncate(msg, maxReasonLength)
}

// Apply returns the label of the first rule matching msg
func Apply(rules []Rule, msg string) (string, bool) {
	for _, rule := range rules {
		if groups := rule.Pattern.FindStringSubmatch(msg); groups != nil {
			return rule.Label(groups), true
		}
	}
	return "", false
}

// Truncate cuts s to n runes and appends "..." when anything was removed
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

var correctionPrefix = regexp.MustCompile(`(?i)^correção:\s*`)

// CorrectionRules are the correction reason groups in priority order
var CorrectionRules = []Rule{
	{
		Name:    "weight",
		Pattern: regexp.MustCompile(`(?i)peso.*?(\d+)`),
		Label:   literal("Correção de Peso"),
	},
	{
		Name:    "pallets",
		Pattern: regexp.MustCompile(`(?i)pall?et`),
		Label:   literal("Correção de Quantidade de Pallets"),
	},
	{
		Name:    "fiscal-document",
		Pattern: regexp.MustCompile(`(?i)nfe|nota fiscal`),
		Label:   literal("Correção de Documentação Fiscal"),
	},
	{
		Name:    "transport",
		Pattern: regexp.MustCompile(`(?i)transportadora|placa`),
		Label:   literal("Correção de Transporte"),
	},
	{
		Name:    "location",
		Pattern: regexp.MustCompile(`(?i)container|local de entrega`),
		Label:   literal("Correção de Local/Container"),
	},
}

// ClassifyCorrectionReason strips a leading "Correção:" label and maps the
// rest to a correction group, returning the cleaned text when none applies.
func ClassifyCorrectionReason(msg string) string {
	cleaned := strings.TrimSpace(correctionPrefix.ReplaceAllString(strings.TrimSpace(msg), ""))

	if label, ok := Apply(CorrectionRules, cleaned); ok {
		return label
	}
	return cleaned
}

var rejectionLabel = regexp.MustCompile(`(?i)^rejei[cç][ãa]o:\s*`)

// StripRejectionLabel removes a leading "Rejeição:" label from a coded description
func StripRejectionLabel(desc string) string {
	return rejectionLabel.ReplaceAllString(desc, "")
}

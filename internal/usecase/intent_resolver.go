// File: internal/usecase/intent_resolver.go
package usecase

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"whatsapp-ai-assistant/internal/domain/model"
)

// KeywordConfig overrides the trigger phrase sets. Empty slices keep the
// defaults; phrases are normalized (lowercased, accents folded) on load.
type KeywordConfig struct {
	Affirmative []string
	Negative    []string
	Cancel      []string
	Reschedule  []string
	Schedule    []string
	Lookup      []string
}

type intentRule struct {
	kind    model.ActionKind
	phrases []string
}

// IntentResolver classifies one user message. When a confirmation is
// pending, the yes/no reading takes priority over everything else.
// Otherwise the first matching rule wins; rule order encodes the policy
// cancel > reschedule > schedule > lookup, so a message matching several
// sets ("cambiar o cancelar?") resolves to the most destructive reading,
// which is always re-confirmed before execution anyway.
type IntentResolver struct {
	rules       []intentRule
	affirmative []string
	negative    []string
}

func defaultKeywords() KeywordConfig {
	return KeywordConfig{
		Affirmative: []string{"sí", "si", "yes", "ok", "confirmo", "confirmar", "dale", "perfecto", "está bien", "esta bien"},
		Negative:    []string{"no", "cancelar", "espera", "mejor no", "no gracias"},
		Cancel:      []string{"cancelar", "anular"},
		Reschedule:  []string{"reprogramar", "cambiar", "mover cita"},
		Schedule:    []string{"agendar", "programar", "cita nueva", "reservar", "quiero cita"},
		Lookup:      []string{"próxima cita", "mis citas", "cuándo", "cuando"},
	}
}

func NewIntentResolver(kw KeywordConfig) *IntentResolver {
	def := defaultKeywords()
	pick := func(override, fallback []string) []string {
		src := override
		if len(src) == 0 {
			src = fallback
		}
		out := make([]string, 0, len(src))
		for _, p := range src {
			if n := normalizeText(p); n != "" {
				out = append(out, n)
			}
		}
		return out
	}

	return &IntentResolver{
		rules: []intentRule{
			{kind: model.ActionCancel, phrases: pick(kw.Cancel, def.Cancel)},
			{kind: model.ActionReschedule, phrases: pick(kw.Reschedule, def.Reschedule)},
			{kind: model.ActionSchedule, phrases: pick(kw.Schedule, def.Schedule)},
			{kind: model.ActionLookup, phrases: pick(kw.Lookup, def.Lookup)},
		},
		affirmative: pick(kw.Affirmative, def.Affirmative),
		negative:    pick(kw.Negative, def.Negative),
	}
}

// Resolve classifies message against conv's pending state and the keyword
// table. now anchors relative date expressions ("mañana", weekday names).
func (r *IntentResolver) Resolve(conv *model.Conversation, message string, now time.Time) model.ActionIntent {
	norm := normalizeText(message)

	if conv != nil && conv.Pending != nil {
		answer := r.classifyAnswer(norm)
		return model.ActionIntent{
			Kind:      conv.Pending.Kind,
			Params:    conv.Pending.Params,
			Confident: answer != model.ConfirmUnclear,
			Answer:    answer,
		}
	}

	for _, rule := range r.rules {
		if matchesAny(norm, rule.phrases) {
			in := model.ActionIntent{Kind: rule.kind, Confident: true}
			if rule.kind == model.ActionSchedule || rule.kind == model.ActionReschedule {
				in.Params = extractSchedule(norm, now)
			}
			return in
		}
	}
	return model.ActionIntent{Kind: model.ActionNone}
}

func (r *IntentResolver) classifyAnswer(norm string) model.Confirmation {
	switch {
	case matchesAny(norm, r.affirmative):
		return model.ConfirmYes
	case matchesAny(norm, r.negative):
		return model.ConfirmNo
	default:
		return model.ConfirmUnclear
	}
}

// IsNegative reports whether message reads as a refusal ("no", "mejor no").
// Used to let users back out of a half-collected appointment request.
func (r *IntentResolver) IsNegative(message string) bool {
	return matchesAny(normalizeText(message), r.negative)
}

// normalizeText lowercases and folds accented vowels so "sí"/"si" and
// "cuándo"/"cuando" compare equal. Ñ is meaningful ("mañana") and kept.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case 'á':
			b.WriteRune('a')
		case 'é':
			b.WriteRune('e')
		case 'í':
			b.WriteRune('i')
		case 'ó':
			b.WriteRune('o')
		case 'ú', 'ü':
			b.WriteRune('u')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchesAny(norm string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(norm, p) {
			return true
		}
	}
	return false
}

// containsPhrase looks for phrase inside norm on word boundaries, so "no"
// does not hide inside "conozco" nor "ok" inside "broker".
func containsPhrase(norm, phrase string) bool {
	if phrase == "" {
		return false
	}
	for idx := 0; ; {
		i := strings.Index(norm[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		if boundaryBefore(norm, start) && boundaryAfter(norm, end) {
			return true
		}
		idx = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

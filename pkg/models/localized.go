package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Translation is a single language-code/value pair of a Localized name.
type Translation struct {
	Lang  string
	Value string
}

// Localized is a name that varies by language or script (e.g. {"en": "Minamoto", "jp": "源"}).
// Entries keep the order in which they were added or decoded, so iteration over a Localized is
// deterministic and follows the caller's document order.
type Localized []Translation

// NewLocalized builds a Localized from alternating language/value arguments.
func NewLocalized(pairs ...string) Localized {
	l := make(Localized, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		l = l.Set(pairs[i], pairs[i+1])
	}
	return l
}

// LocalizedFromMap converts a plain map, ordering languages lexically.
func LocalizedFromMap(m map[string]string) Localized {
	l := make(Localized, 0, len(m))
	for _, lang := range sortedKeys(m) {
		l = l.Set(lang, m[lang])
	}
	return l
}

// IsEmpty reports whether the name has no translations.
func (l Localized) IsEmpty() bool {
	return len(l) == 0
}

// Get returns the value for a language.
func (l Localized) Get(lang string) (string, bool) {
	for _, t := range l {
		if t.Lang == lang {
			return t.Value, true
		}
	}
	return "", false
}

// Set returns a copy with lang set to value. An existing language keeps its position.
// Empty languages or values are ignored.
func (l Localized) Set(lang, value string) Localized {
	if lang == "" || value == "" {
		return l
	}
	out := make(Localized, len(l), len(l)+1)
	copy(out, l)
	for i := range out {
		if out[i].Lang == lang {
			out[i].Value = value
			return out
		}
	}
	return append(out, Translation{Lang: lang, Value: value})
}

// Merge overlays other onto l: values of other overwrite matching languages and new languages are
// appended. Nothing is ever removed.
func (l Localized) Merge(other Localized) Localized {
	out := l.Clone()
	for _, t := range other {
		out = out.Set(t.Lang, t.Value)
	}
	return out
}

// Equal reports whether both names hold the same translations in the same order.
func (l Localized) Equal(other Localized) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Contains reports whether value is used under any language.
func (l Localized) Contains(value string) bool {
	for _, t := range l {
		if t.Value == value {
			return true
		}
	}
	return false
}

// LangOf returns the first language whose value equals value.
func (l Localized) LangOf(value string) (string, bool) {
	for _, t := range l {
		if t.Value == value {
			return t.Lang, true
		}
	}
	return "", false
}

// Langs returns the language codes in order.
func (l Localized) Langs() []string {
	langs := make([]string, len(l))
	for i, t := range l {
		langs[i] = t.Lang
	}
	return langs
}

// Values returns the values in order.
func (l Localized) Values() []string {
	values := make([]string, len(l))
	for i, t := range l {
		values[i] = t.Value
	}
	return values
}

// Clone returns an independent copy.
func (l Localized) Clone() Localized {
	if l == nil {
		return nil
	}
	out := make(Localized, len(l))
	copy(out, l)
	return out
}

// MarshalJSON encodes the name as a JSON object, keeping entry order.
func (l Localized) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Lang)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(t.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values, keeping the document's key order.
// null decodes to an empty name.
func (l *Localized) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("localized name must be a JSON object, got %v", tok)
	}

	out := Localized{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		lang, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("localized name key must be a string, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("localized name %q: %w", lang, err)
		}
		out = out.Set(lang, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = out
	return nil
}

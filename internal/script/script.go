// Package script decides between simplified and traditional Chinese by
// round-tripping text through a traditional-to-simplified converter.
package script

import (
	"github.com/longbridgeapp/opencc"
	"github.com/rotisserie/eris"

	"github.com/sells-group/langid/internal/langcode"
)

// Converter turns text into simplified Chinese script.
type Converter interface {
	ToSimplified(text string) (string, error)
}

// OpenCC is a Converter backed by the OpenCC t2s dictionaries.
type OpenCC struct {
	cc *opencc.OpenCC
}

// NewOpenCC loads the traditional-to-simplified conversion tables.
func NewOpenCC() (*OpenCC, error) {
	cc, err := opencc.New("t2s")
	if err != nil {
		return nil, eris.Wrap(err, "script: load opencc t2s")
	}
	return &OpenCC{cc: cc}, nil
}

// ToSimplified converts text to simplified script.
func (o *OpenCC) ToSimplified(text string) (string, error) {
	out, err := o.cc.Convert(text)
	if err != nil {
		return "", eris.Wrap(err, "script: convert t2s")
	}
	return out, nil
}

// Disambiguator maps a Chinese-family verdict to simplified or traditional.
//
// The check is a heuristic: text that survives t2s conversion unchanged is
// taken as simplified. Short or mixed-script input can be misclassified.
type Disambiguator struct {
	conv Converter
}

// NewDisambiguator returns a Disambiguator using conv.
func NewDisambiguator(conv Converter) *Disambiguator {
	return &Disambiguator{conv: conv}
}

// Resolve returns langcode.Simplified or langcode.Traditional when rawTag is
// Chinese, and rawTag unchanged otherwise. applied reports whether the
// conversion check ran.
func (d *Disambiguator) Resolve(text, rawTag string) (tag string, applied bool, err error) {
	if !langcode.IsChinese(rawTag) {
		return rawTag, false, nil
	}

	converted, err := d.conv.ToSimplified(text)
	if err != nil {
		return "", true, err
	}
	if converted == text {
		return langcode.Simplified, true, nil
	}
	return langcode.Traditional, true, nil
}

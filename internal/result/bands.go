// Package result maps a final score onto descriptive feedback bands.
package result

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// OutOfRangeKey identifies the descriptor returned for scores outside every band.
const OutOfRangeKey = "out_of_range"

// Band is an inclusive score range [Min, Max] with its feedback.
type Band struct {
	Key      string    `yaml:"key"`
	Min      int       `yaml:"min"`
	Max      int       `yaml:"max"`
	Title    Localized `yaml:"title"`
	Feedback Localized `yaml:"feedback"`
}

// Table is the band configuration: contiguous bands, optional
// per-category supplements and the out-of-range descriptor.
type Table struct {
	Bands          []Band               `yaml:"bands"`
	OutOfRange     Localized            `yaml:"out_of_range"`
	CategoryAdvice map[string]Localized `yaml:"category_advice"`
}

// Classification is the outcome of Classify.
type Classification struct {
	Score      int
	InRange    bool
	Key        string
	Title      string
	Feedback   string
	Supplement string
}

type Classifier struct {
	bands      []Band
	outOfRange Localized
	categories map[string]Localized
	fallback   language.Tag
}

// NewClassifier validates table and returns a classifier whose text falls
// back to fallback when the requested language has no translation.
func NewClassifier(table Table, fallback language.Tag) (*Classifier, error) {
	if len(table.Bands) == 0 {
		return nil, eris.New("result: band table is empty")
	}

	bands := append([]Band(nil), table.Bands...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })

	for idx, band := range bands {
		if strings.TrimSpace(band.Key) == "" {
			return nil, eris.Errorf("result: band %d has no key", idx)
		}
		if band.Min > band.Max {
			return nil, eris.Errorf("result: band %q has min %d above max %d", band.Key, band.Min, band.Max)
		}
		if err := band.Title.validate(); err != nil {
			return nil, eris.Wrapf(err, "result: band %q title", band.Key)
		}
		if err := band.Feedback.validate(); err != nil {
			return nil, eris.Wrapf(err, "result: band %q feedback", band.Key)
		}
		if idx == 0 {
			continue
		}
		prev := bands[idx-1]
		if band.Min <= prev.Max {
			return nil, eris.Errorf("result: bands %q and %q overlap", prev.Key, band.Key)
		}
		if band.Min != prev.Max+1 {
			return nil, eris.Errorf("result: gap between bands %q and %q", prev.Key, band.Key)
		}
	}

	categories := make(map[string]Localized, len(table.CategoryAdvice))
	for key, text := range table.CategoryAdvice {
		if err := text.validate(); err != nil {
			return nil, eris.Wrapf(err, "result: category advice %q", key)
		}
		categories[categoryKey(key)] = text
	}

	outOfRange := table.OutOfRange
	if len(outOfRange) == 0 {
		outOfRange = Localized{"en": "The score is outside the supported range."}
	}

	return &Classifier{
		bands:      bands,
		outOfRange: outOfRange,
		categories: categories,
		fallback:   fallback,
	}, nil
}

// Classify resolves score to its band. Scores outside [lowest Min, highest
// Max] get the out-of-range descriptor and InRange=false. The category
// supplement is attached whenever category has configured advice.
func (c *Classifier) Classify(score int, category string, lang language.Tag) Classification {
	result := Classification{Score: score}
	if text, ok := c.categories[categoryKey(category)]; ok {
		result.Supplement = text.Text(lang, c.fallback)
	}

	for _, band := range c.bands {
		if score >= band.Min && score <= band.Max {
			result.InRange = true
			result.Key = band.Key
			result.Title = band.Title.Text(lang, c.fallback)
			result.Feedback = band.Feedback.Text(lang, c.fallback)
			return result
		}
	}

	result.Key = OutOfRangeKey
	result.Feedback = c.outOfRange.Text(lang, c.fallback)
	return result
}

// Range reports the lowest and highest classifiable score.
func (c *Classifier) Range() (int, int) {
	return c.bands[0].Min, c.bands[len(c.bands)-1].Max
}

// LoadTable reads a YAML band table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, eris.Wrapf(err, "result: read %s", path)
	}
	return ParseTable(data)
}

func ParseTable(data []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, eris.Wrap(err, "result: decode band table")
	}
	if len(table.Bands) == 0 {
		return Table{}, fmt.Errorf("result: band table defines no bands")
	}
	return table, nil
}

func categoryKey(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

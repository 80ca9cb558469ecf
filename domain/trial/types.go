package trial

// FactorLevel is one level of a two-level experimental factor.
type FactorLevel string

const (
	LevelA1 FactorLevel = "a1"
	LevelA2 FactorLevel = "a2"
	LevelB1 FactorLevel = "b1"
	LevelB2 FactorLevel = "b2"
)

// EffectLabel names one of the three tested effects.
type EffectLabel string

const (
	EffectIV1         EffectLabel = "iv1"
	EffectIV2         EffectLabel = "iv2"
	EffectInteraction EffectLabel = "iv1:iv2"
)

// EffectLabels lists the three effects in reporting order.
func EffectLabels() []EffectLabel {
	return []EffectLabel{EffectIV1, EffectIV2, EffectInteraction}
}

// Dataset holds one synthetic 2x2 factorial sample in column form.
type Dataset struct {
	Response []float64
	IV1      []FactorLevel
	IV2      []FactorLevel
}

// Len returns the number of observations
func (d *Dataset) Len() int {
	return len(d.Response)
}

// Codes returns 0/1 dummy codes for both factors (a1/b1 = 0, a2/b2 = 1).
func (d *Dataset) Codes() (x1, x2 []float64) {
	x1 = make([]float64, len(d.IV1))
	x2 = make([]float64, len(d.IV2))
	for i, lvl := range d.IV1 {
		if lvl == LevelA2 {
			x1[i] = 1
		}
	}
	for i, lvl := range d.IV2 {
		if lvl == LevelB2 {
			x2[i] = 1
		}
	}
	return x1, x2
}

// Result is the fixed-shape outcome of evaluating one synthetic dataset:
// three p-values, three significance flags, three Cohen's f magnitudes.
// The interaction entries describe the interaction term only, isolated from
// the main effects.
type Result struct {
	PIV1         float64 `json:"p_1"`
	SigIV1       bool    `json:"sig_1"`
	PIV2         float64 `json:"p_2"`
	SigIV2       bool    `json:"sig_2"`
	PInteraction float64 `json:"p_3"`
	SigInter     bool    `json:"sig_3"`
	ESIV1        float64 `json:"es_1"`
	ESIV2        float64 `json:"es_2"`
	ESInter      float64 `json:"es_3"`
}

// P returns the p-value for one effect label.
func (r Result) P(label EffectLabel) float64 {
	switch label {
	case EffectIV1:
		return r.PIV1
	case EffectIV2:
		return r.PIV2
	default:
		return r.PInteraction
	}
}

// Sig returns the significance flag for one effect label.
func (r Result) Sig(label EffectLabel) bool {
	switch label {
	case EffectIV1:
		return r.SigIV1
	case EffectIV2:
		return r.SigIV2
	default:
		return r.SigInter
	}
}

// ES returns the Cohen's f magnitude for one effect label.
func (r Result) ES(label EffectLabel) float64 {
	switch label {
	case EffectIV1:
		return r.ESIV1
	case EffectIV2:
		return r.ESIV2
	default:
		return r.ESInter
	}
}

// Record is one row of the flat sweep table, keyed by (n, sd, repetition).
type Record struct {
	N   int     `json:"n"`
	SD  float64 `json:"sd"`
	Rep int     `json:"repetition"`
	Result
}

package bloodtest

import (
	"sort"
	"time"

	"github.com/Stikerz/numan/internal/platform/apierr"
)

// Panel is a blood test type a lab can run.
type Panel string

const (
	PanelHDL Panel = "HDL" // HDL cholesterol
	PanelLDL Panel = "LDL" // LDL cholesterol
	PanelCHL Panel = "CHL" // total cholesterol
	PanelSGR Panel = "SGR" // blood sugar
	PanelCBC Panel = "CBC" // complete blood count
	PanelTRG Panel = "TRG" // triglycerides
	PanelHBA Panel = "HBA" // HbA1c
	PanelVTD Panel = "VTD" // vitamin D
	PanelFER Panel = "FER" // ferritin
	PanelTSH Panel = "TSH" // thyroid stimulating hormone
)

var supportedPanels = map[Panel]struct{}{
	PanelHDL: {}, PanelLDL: {}, PanelCHL: {}, PanelSGR: {}, PanelCBC: {},
	PanelTRG: {}, PanelHBA: {}, PanelVTD: {}, PanelFER: {}, PanelTSH: {},
}

func (p Panel) Valid() bool {
	_, ok := supportedPanels[p]
	return ok
}

// SupportedPanels returns every panel name in sorted order.
func SupportedPanels() []Panel {
	out := make([]Panel, 0, len(supportedPanels))
	for p := range supportedPanels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PanelSet is a selection of panels. Requesting a panel twice selects it once.
type PanelSet map[Panel]struct{}

// ParsePanels validates names against the supported panels. Names are
// matched exactly; the first unknown name is reported.
func ParsePanels(names []string) (PanelSet, error) {
	if len(names) == 0 {
		return nil, apierr.Validation("blood_test: This selection may not be empty.")
	}
	set := make(PanelSet, len(names))
	for _, name := range names {
		p := Panel(name)
		if !p.Valid() {
			return nil, apierr.Validationf("blood_test: %q is not a valid choice.", name)
		}
		set[p] = struct{}{}
	}
	return set, nil
}

// PendingResults returns a result map with a null value for every panel.
func (s PanelSet) PendingResults() map[string]*float64 {
	results := make(map[string]*float64, len(s))
	for p := range s {
		results[string(p)] = nil
	}
	return results
}

// Order is one user's request for a set of panels. Results start out null
// and are filled in once the lab reports back, at which point Ready is set.
type Order struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user"`
	LabID     *int64              `json:"lab"`
	Results   map[string]*float64 `json:"results"`
	Ready     bool                `json:"ready"`
	Timestamp time.Time           `json:"timestamp"`
}

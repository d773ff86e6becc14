package agronomy

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"agri-forecast-service/config"
	"agri-forecast-service/models"
)

// Model converts a weather forecast into crop and livestock outlooks. It has
// no state beyond its configuration and is safe for concurrent use.
type Model struct {
	cfg       config.AgronomyConfig
	livestock config.LivestockConfig
	logger    *zap.Logger
}

// NewModel creates a model from the agronomic and livestock policy
func NewModel(cfg config.AgronomyConfig, livestock config.LivestockConfig, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{cfg: cfg, livestock: livestock, logger: logger}
}

// CropParameters looks up the parameters for cropType. Unknown types resolve
// to the configured default crop; known reports which case applied.
func (m *Model) CropParameters(cropType string) (params models.CropParameters, known bool) {
	if p, ok := m.cfg.Crops[normalizeCrop(cropType)]; ok {
		return p, true
	}
	return m.cfg.Crops[m.cfg.DefaultCrop], false
}

// CropTypes returns the known crop identifiers in sorted order
func (m *Model) CropTypes() []string {
	names := make([]string, 0, len(m.cfg.Crops))
	for name := range m.cfg.Crops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CropTable returns a copy of the crop parameter table
func (m *Model) CropTable() map[string]models.CropParameters {
	table := make(map[string]models.CropParameters, len(m.cfg.Crops))
	for name, p := range m.cfg.Crops {
		table[name] = p
	}
	return table
}

func normalizeCrop(cropType string) string {
	return strings.ToLower(strings.TrimSpace(cropType))
}

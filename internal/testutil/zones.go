package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/frontline/internal/config"
	"github.com/udisondev/frontline/internal/game/zone"
)

// Шаг между зонами линейной карты и размер стороны зоны.
const (
	LineSpacing  = 100
	LineZoneSize = 50
)

// LineZones строит линейную карту: дом "BaseA" (usa), флаги по порядку, дом "BaseB" (rus).
// Зона i: квадрат со стороной LineZoneSize в точке (i*LineSpacing, 0),
// каждая связана со следующей.
func LineZones(flags ...string) []config.Zone {
	names := append(append([]string{"BaseA"}, flags...), "BaseB")
	out := make([]config.Zone, len(names))
	for i, name := range names {
		x := int32(i * LineSpacing)
		c := config.Zone{
			Name:  name,
			Type:  zone.TypeFlag,
			Shape: string(zone.ShapeCuboid),
			Nodes: [][2]int32{{x, 0}, {x + LineZoneSize, LineZoneSize}},
		}
		if i < len(names)-1 {
			c.Links = []config.ZoneLink{{To: names[i+1]}}
		}
		out[i] = c
	}
	out[0].Type, out[0].Faction = zone.TypeHome, "usa"
	out[len(out)-1].Type, out[len(out)-1].Faction = zone.TypeHome, "rus"
	return out
}

// LinePoint возвращает точку внутри i-й зоны линейной карты (0 это BaseA).
func LinePoint(i int) (x, y int32) {
	return int32(i*LineSpacing + LineZoneSize/2), LineZoneSize / 2
}

// MustZones конвертирует конфиг зон, проваливая тест при ошибке.
func MustZones(tb testing.TB, cfgs []config.Zone) []zone.Zone {
	tb.Helper()
	zones, err := zone.FromConfigs(cfgs)
	require.NoError(tb, err)
	return zones
}

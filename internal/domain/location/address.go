package location

import (
	"strings"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/nominatim"
)

var (
	districtKeys = []string{
		"suburb", "neighbourhood", "quarter", "city_district", "borough",
		"hamlet", "village", "town", "city", "municipality", "county",
	}
	streetKeys = []string{
		"road", "pedestrian", "street", "residential", "path", "footway", "cycleway",
	}
)

// District первое непустое значение по приоритетному списку ключей
func District(addr nominatim.Address) string {
	return firstValue(addr, districtKeys)
}

// Street название улицы с номером дома, если он есть
func Street(addr nominatim.Address) string {
	name := firstValue(addr, streetKeys)
	if name == "" {
		return ""
	}
	if number := strings.TrimSpace(addr["house_number"]); number != "" {
		return name + ", " + number
	}
	return name
}

func firstValue(addr nominatim.Address, keys []string) string {
	for _, k := range keys {
		if v := addr[k]; v != "" {
			return v
		}
	}
	return ""
}

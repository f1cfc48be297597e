package geo

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

// MaxMind：GeoLite2/GeoIP2 归属解析
// 约束：countryPath 可为 Country 或 City 库；asnPath 为 ASN 库，组织名作为运营商；两者至少一个。
type MaxMind struct {
	geo  *geoip2.Reader
	city bool
	asn  *maxminddb.Reader
}

type asnRecord struct {
	Number       uint   `maxminddb:"autonomous_system_number"`
	Organization string `maxminddb:"autonomous_system_organization"`
}

// OpenMaxMind：路径为空的库跳过；全部为空时返回 nil, nil
func OpenMaxMind(countryPath, asnPath string) (*MaxMind, error) {
	if countryPath == "" && asnPath == "" {
		return nil, nil
	}
	m := &MaxMind{}
	if countryPath != "" {
		r, err := geoip2.Open(countryPath)
		if err != nil {
			return nil, err
		}
		m.geo = r
		m.city = strings.Contains(r.Metadata().DatabaseType, "City")
	}
	if asnPath != "" {
		r, err := maxminddb.Open(asnPath)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.asn = r
	}
	return m, nil
}

func (m *MaxMind) Lookup(ip string) (Location, bool) {
	var l Location
	p := net.ParseIP(ip)
	if p == nil {
		return l, false
	}
	if m.geo != nil {
		if m.city {
			if rec, err := m.geo.City(p); err == nil {
				l.Country = rec.Country.IsoCode
				if len(rec.Subdivisions) > 0 {
					l.Region = rec.Subdivisions[0].Names["en"]
				}
				l.City = rec.City.Names["en"]
			}
		} else if rec, err := m.geo.Country(p); err == nil {
			l.Country = rec.Country.IsoCode
		}
	}
	if m.asn != nil {
		var rec asnRecord
		if err := m.asn.Lookup(p, &rec); err == nil {
			l.Operator = rec.Organization
		}
	}
	return l, !l.Empty()
}

func (m *MaxMind) Close() {
	if m.geo != nil {
		_ = m.geo.Close()
	}
	if m.asn != nil {
		_ = m.asn.Close()
	}
}

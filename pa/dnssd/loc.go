package dnssd

import (
	"github.com/miekg/dns"

	"github.com/paprintd/paprintd"
)

// degreesToLOC converts a signed degree value into the RFC 1876 LOC RR
// angle encoding: thousandths of an arc-second, offset from the equator
// or prime meridian by 2^31.
func degreesToLOC(deg float64) uint32 {
	const (
		arcSecondsPerDegree = 3600.0
		milliArcSecond      = 1000.0
		equator             = uint32(1) << 31
	)
	milliarcsec := deg * arcSecondsPerDegree * milliArcSecond
	return uint32(int64(equator) + int64(milliarcsec))
}

// metersToLOCAltitude converts meters above the WGS84 reference spheroid
// into the LOC RR's centimeter-resolution altitude field, offset by 100000m.
func metersToLOCAltitude(meters float64) uint32 {
	const offsetMeters = 100000.0
	return uint32((meters + offsetMeters) * 100)
}

// buildLOC renders a printer's geo-location as a DNS LOC resource record,
// advertised alongside the _ipp._tcp/_ipps._tcp SRV/TXT records so
// location-aware clients can sort nearby printers first.
func buildLOC(hostname string, loc pa.Location) *dns.LOC {
	return &dns.LOC{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(hostname),
			Rrtype: dns.TypeLOC,
			Class:  dns.ClassINET,
			Ttl:    120,
		},
		Version:   0,
		Size:      0x11, // 10cm, RFC 1876 §3 power-of-ten encoding
		HorizPre:  0x11, // 10cm
		VertPre:   0x11, // 10cm
		Latitude:  degreesToLOC(loc.Lat),
		Longitude: degreesToLOC(loc.Lon),
		Altitude:  metersToLOCAltitude(loc.Alt),
	}
}

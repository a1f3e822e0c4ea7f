package dnssd

import (
	"fmt"
	"strings"

	"github.com/paprintd/paprintd/pa/driver"
)

// txtKeyOrder is the fixed key emission order for the _ipp._tcp/_ipps._tcp
// TXT record. URF, Color and Duplex appear only when the driver's
// capabilities support them, and any other key with an empty value is
// omitted, except note, which is always present, even empty, since clients
// probe for its presence rather than its content.
var txtKeyOrder = []string{
	"rp", "ty", "adminurl", "note", "lo", "pdl", "kind",
	"UUID", "URF", "Color", "Duplex", "txtvers", "qtotal", "priority",
}

// buildTXT renders the _ipp._tcp/_ipps._tcp TXT record key set, merging
// ippsrv/mdns.go's minimal key list with the fuller AirPrint/IPP Everywhere
// set (rp, ty, adminurl, note, priority, pdl, URF, Color, Duplex, UUID)
// used by airprint-bridge and CUPS-compatible advertisers, in the fixed
// key order AirPrint clients expect rather than an alphabetical one.
func buildTXT(info PrinterInfo, adminURL string) []string {
	txt := map[string]string{
		"txtvers":  "1",
		"qtotal":   "1",
		"rp":       "ipp/print",
		"ty":       info.MakeAndModel,
		"priority": "0",
		"kind":     "document,envelope",
		"UUID":     strings.TrimPrefix(info.UUID, "urn:uuid:"),
		"note":     info.Note,
	}
	if adminURL != "" {
		txt["adminurl"] = adminURL
	}
	if info.Location != "" {
		txt["lo"] = info.Location
	}
	if pdl := pdlList(info.Caps.RasterTypes); len(pdl) > 0 {
		txt["pdl"] = strings.Join(pdl, ",")
	}
	if urf := urfString(info.Caps); urf != "" {
		txt["URF"] = urf
	}
	if info.Caps.Duplex {
		txt["Duplex"] = "T"
	}
	if hasColor(info.Caps) {
		txt["Color"] = "T"
	}

	out := make([]string, 0, len(txtKeyOrder))
	for _, k := range txtKeyOrder {
		v, ok := txt[k]
		if !ok {
			continue
		}
		if k != "note" && strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

func pdlList(rasterTypes []driver.RasterColorType) []string {
	seen := map[string]bool{"application/pdf": true}
	out := []string{"application/pdf"}
	for _, rt := range rasterTypes {
		if mt := rasterMIME(rt); mt != "" && !seen[mt] {
			seen[mt] = true
			out = append(out, mt)
		}
	}
	return out
}

func rasterMIME(rasterType driver.RasterColorType) string {
	switch rasterType {
	case driver.RasterBlackWhite1, driver.RasterSGray8, driver.RasterSRGB8:
		return "image/pwg-raster"
	default:
		return ""
	}
}

// urfString encodes resolution/color/duplex support into the compact URF
// token set Apple/Mopria clients parse for driverless printing.
func urfString(caps driver.Capabilities) string {
	var tokens []string
	if len(caps.Resolutions) > 0 {
		r := caps.Resolutions[0]
		res := r.X
		if r.Y > res {
			res = r.Y
		}
		tokens = append(tokens, fmt.Sprintf("RS%d", res))
	}
	if hasColor(caps) {
		tokens = append(tokens, "SRGB24")
	} else {
		tokens = append(tokens, "W8")
	}
	tokens = append(tokens, "V1.4")
	if caps.Duplex {
		tokens = append(tokens, "DM1")
	}
	return strings.Join(tokens, ",")
}

func hasColor(caps driver.Capabilities) bool {
	for _, m := range caps.ColorModes {
		if m == driver.ColorModeColor || m == driver.ColorModeAuto {
			return true
		}
	}
	return false
}

package ap

import (
	"encoding/xml"
	"fmt"
	"strings"
)

type productInfo struct {
	XMLName xml.Name `xml:"products"`
	Product struct {
		Fields []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"product"`
}

// parseProductInfo flattens products/product into key/value pairs.
func parseProductInfo(payload []byte) (map[string]string, error) {
	var info productInfo
	if err := xml.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("parsing product info: %w", err)
	}
	attrs := make(map[string]string, len(info.Product.Fields))
	for _, f := range info.Product.Fields {
		attrs[f.XMLName.Local] = strings.TrimSpace(f.Value)
	}
	return attrs, nil
}

// Attribute returns a server announced product attribute.
func (s *Session) Attribute(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attributes[name]
	return v, ok
}

// Attributes returns a copy of every announced product attribute.
func (s *Session) Attributes() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.attributes))
	for k, v := range s.attributes {
		out[k] = v
	}
	return out
}

// IsPremium reports whether the account type attribute is premium.
func (s *Session) IsPremium() bool {
	v, _ := s.Attribute("type")
	return v == "premium"
}

// CountryCode returns the country announced by the access point.
func (s *Session) CountryCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.country
}
